package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the current version of tvgrid
const Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tvgrid",
	Long:  "Print the version number of tvgrid",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tvgrid version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
