package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/pkg/models"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a schedule JSON file",
	Long: `Reads a schedule in the server response shape ({"channels": [...], "dateRange": {...}})
and writes its channels, programs and reservations to the database. Use - to read stdin.
Programs that do not start before they end are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	resp, err := readSchedule(cmd, args[0])
	if err != nil {
		return err
	}

	database, _, err := openForWrite(cmd.Context(), cfg.Source.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.Import(cmd.Context(), resp)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d channels, %d programs, %d reservations\n", stats.Channels, stats.Programs, stats.Reservations)
	if stats.Skipped > 0 {
		fmt.Fprintf(out, "Skipped %d invalid programs\n", stats.Skipped)
	}
	return nil
}

// readSchedule decodes a schedule response from a file or stdin
func readSchedule(cmd *cobra.Command, name string) (*models.ScheduleResponse, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = afero.ReadFile(fsys, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var resp models.ScheduleResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &resp, nil
}
