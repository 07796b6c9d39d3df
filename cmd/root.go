package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/config"
	"github.com/chris/tvgrid/pkg/models"
)

var (
	dbPath     string
	configPath string

	// fsys is the filesystem config and import files are read from
	fsys afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:     "tvgrid",
	Short:   "Broadcast TV schedule grid",
	Long:    "A terminal TV guide: browse the broadcast schedule grid, manage recording reservations and serve schedule data",
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: ~/.local/share/tvgrid/schedule.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.tvgrid/config.yaml)")
	rootCmd.SetVersionTemplate("tvgrid version {{.Version}}\n")
}

// loadConfig reads the config file and applies the persistent flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(config.DefaultDir(), "config.yaml")
	}
	cfg, err := config.Load(fsys, path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Source.DBPath = dbPath
	}
	return cfg, nil
}

// channelFilter builds the request filter from flags, falling back to the
// configured source
func channelFilter(cfg *config.Config, group string, channels []string) models.ChannelFilter {
	filter := models.ChannelFilter{Group: cfg.Source.Group, ChannelIDs: cfg.Source.Channels}
	if group != "" {
		filter.Group = group
	}
	if len(channels) > 0 {
		filter.ChannelIDs = channels
	}
	filter.Group = strings.TrimSpace(filter.Group)
	return filter
}
