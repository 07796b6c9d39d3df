// Package migrations embeds the schedule database schema.
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed 001_schedule.sql
var scheduleSQL string

//go:embed 002_reservations.sql
var reservationsSQL string

// All contains all migrations in order. Each migration's index+1 is its version number.
var All = []string{
	scheduleSQL,     // version 1
	reservationsSQL, // version 2
}

// Version is the schema version after all migrations ran
func Version() int {
	return len(All)
}

// Migrate brings the database from its PRAGMA user_version up to Version.
// Each step runs in its own transaction and bumps user_version on commit,
// so a failed step leaves the database at the last good version.
// It returns the version the database was at before migrating.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	var from int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&from); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := from; i < len(All); i++ {
		if err := step(ctx, db, i+1, All[i]); err != nil {
			return from, err
		}
	}
	return from, nil
}

func step(ctx context.Context, db *sql.DB, version int, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("migration %d failed: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to set schema version to %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", version, err)
	}
	return nil
}
