package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the database schema",
	Long:  "Creates the tvgrid schedule database and applies pending migrations. Safe to run multiple times - will not overwrite existing data.",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	database, created, err := openForWrite(cmd.Context(), cfg.Source.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Database initialized: %s\n", database.Path())
		return nil
	}

	version, err := database.SchemaVersion(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database up to date (schema %d): %s\n", version, database.Path())
	return nil
}

// openForWrite opens the database and applies pending migrations. created
// reports whether the schema was created by this call.
func openForWrite(ctx context.Context, path string) (*db.DB, bool, error) {
	database, err := db.NewWithOptions(path, db.Options{SkipSchemaCheck: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to open database: %w", err)
	}

	created, err := database.InitSchema(ctx)
	if err != nil {
		database.Close()
		return nil, false, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return database, created, nil
}
