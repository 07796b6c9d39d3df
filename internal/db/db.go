package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chris/tvgrid/internal/db/migrations"
	"github.com/chris/tvgrid/pkg/models"
)

const defaultDBPath = "~/.local/share/tvgrid/schedule.db"

// ErrNotFound is returned when a program or channel does not exist
var ErrNotFound = errors.New("not found")

// ErrNotInitialized is returned when opening a database without a schema
var ErrNotInitialized = errors.New("database not initialized, run: tvgrid init-db")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Options configures database connection behavior
type Options struct {
	// SkipSchemaCheck opens the database without verifying schema exists.
	// Use this for init-db command which creates the schema.
	SkipSchemaCheck bool
	// ReadOnly opens an existing database without write access
	ReadOnly bool
}

// ImportStats counts what an import wrote
type ImportStats struct {
	Channels     int
	Programs     int
	Reservations int
	Skipped      int
}

// ResolvePath expands a leading tilde, or picks the XDG data location when path is empty
func ResolvePath(dbPath string) (string, error) {
	if dbPath == "" || dbPath == defaultDBPath {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get user home directory: %w", err)
			}
			dataDir = filepath.Join(home, ".local/share")
		}
		return filepath.Join(dataDir, "tvgrid/schedule.db"), nil
	}
	if dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(home, dbPath[1:]), nil
	}
	return dbPath, nil
}

// New opens an initialized database
func New(dbPath string) (*DB, error) {
	return NewWithOptions(dbPath, Options{})
}

// NewWithOptions creates a new database connection with configurable options
func NewWithOptions(dbPath string, opts Options) (*DB, error) {
	dbPath, err := ResolvePath(dbPath)
	if err != nil {
		return nil, err
	}

	dsn := dbPath
	if opts.ReadOnly {
		dsn = "file:" + dbPath + "?mode=ro"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set busy timeout first, before any other operations that might need write locks
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if !opts.SkipSchemaCheck {
		var version int
		if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to check schema version: %w", err)
		}
		if version == 0 {
			conn.Close()
			return nil, ErrNotInitialized
		}
	}

	if !opts.ReadOnly {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &DB{conn: conn, path: dbPath, now: time.Now}, nil
}

// NewForTesting creates a new database with schema initialized.
// This is a convenience function for tests.
func NewForTesting(dbPath string) (*DB, error) {
	db, err := NewWithOptions(dbPath, Options{SkipSchemaCheck: true})
	if err != nil {
		return nil, err
	}
	if _, err := db.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema runs pending migrations.
// Returns true if the schema was created, false if it already existed.
func (db *DB) InitSchema(ctx context.Context) (bool, error) {
	from, err := migrations.Migrate(ctx, db.conn)
	if err != nil {
		return false, err
	}
	return from == 0, nil
}

// SchemaVersion returns PRAGMA user_version
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to check schema version: %w", err)
	}
	return version, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertChannel(ctx context.Context, ex execer, ch models.Channel) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO channels (id, name, channel_group, ordering, has_sub_stream)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			channel_group = excluded.channel_group,
			ordering = excluded.ordering,
			has_sub_stream = excluded.has_sub_stream`,
		ch.ID, ch.Name, ch.Group, ch.Ordering, boolToInt(ch.HasSubStream),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

func upsertProgram(ctx context.Context, ex execer, p models.Program) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO programs (id, channel_id, stream, start_time, end_time, title, genre, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel_id = excluded.channel_id,
			stream = excluded.stream,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			title = excluded.title,
			genre = excluded.genre,
			description = excluded.description`,
		p.ID, p.ChannelID, int(p.Stream), p.Start.Unix(), p.End.Unix(), p.Title, p.Genre, p.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert program %s: %w", p.ID, err)
	}
	return nil
}

func putReservation(ctx context.Context, ex execer, programID string, r models.Reservation, now time.Time) error {
	if r.Status == models.ReservationNone {
		_, err := ex.ExecContext(ctx, "DELETE FROM reservations WHERE program_id = ?", programID)
		if err != nil {
			return fmt.Errorf("failed to clear reservation for %s: %w", programID, err)
		}
		return nil
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO reservations (program_id, status, availability, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(program_id) DO UPDATE SET
			status = excluded.status,
			availability = excluded.availability,
			updated_at = excluded.updated_at`,
		programID, r.Status.String(), r.Availability.String(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store reservation for %s: %w", programID, err)
	}
	return nil
}

// UpsertChannel inserts or replaces a channel
func (db *DB) UpsertChannel(ctx context.Context, ch models.Channel) error {
	return upsertChannel(ctx, db.conn, ch)
}

// InsertProgram inserts or replaces a program. The program must be valid
// and its channel must exist.
func (db *DB) InsertProgram(ctx context.Context, p models.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return upsertProgram(ctx, db.conn, p)
}

// Import writes a schedule response in one transaction. Invalid programs
// are skipped and counted.
func (db *DB) Import(ctx context.Context, resp *models.ScheduleResponse) (ImportStats, error) {
	var stats ImportStats

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	now := db.now()
	for _, cs := range resp.Channels {
		ch := cs.Channel
		if len(cs.SubchannelPrograms) > 0 {
			ch.HasSubStream = true
		}
		if err := upsertChannel(ctx, tx, ch); err != nil {
			return stats, err
		}
		stats.Channels++

		streams := []struct {
			role     models.StreamRole
			programs []models.Program
		}{
			{models.MainStream, cs.Programs},
			{models.SubStream, cs.SubchannelPrograms},
		}
		for _, s := range streams {
			for _, p := range s.programs {
				if err := p.Validate(); err != nil {
					stats.Skipped++
					continue
				}
				p.ChannelID = ch.ID
				p.Stream = s.role
				if err := upsertProgram(ctx, tx, p); err != nil {
					return stats, err
				}
				stats.Programs++
				if p.Reservation != nil {
					if err := putReservation(ctx, tx, p.ID, *p.Reservation, now); err != nil {
						return stats, err
					}
					stats.Reservations++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}
	return stats, nil
}

// SetReservation records the scheduler state of a program. Status None
// removes the reservation.
func (db *DB) SetReservation(ctx context.Context, programID string, r models.Reservation) error {
	var exists int
	err := db.conn.QueryRowContext(ctx, "SELECT 1 FROM programs WHERE id = ?", programID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("program %s: %w", programID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up program: %w", err)
	}
	return putReservation(ctx, db.conn, programID, r, db.now())
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(s scanner, loc *time.Location) (models.Program, error) {
	var (
		p                    models.Program
		stream               int
		start, end           int64
		status, availability *string
	)
	err := s.Scan(
		&p.ID, &p.ChannelID, &stream, &start, &end,
		&p.Title, &p.Genre, &p.Description,
		&status, &availability,
	)
	if err != nil {
		return p, err
	}
	p.Stream = models.StreamRole(stream)
	p.Start = unixIn(start, loc)
	p.End = unixIn(end, loc)
	p.Reservation = reservationFrom(status, availability)
	return p, nil
}

// GetProgram retrieves a program by ID
func (db *DB) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	query := "SELECT " + programColumns + programFromJoins + " WHERE p.id = ?"
	p, err := scanProgram(db.conn.QueryRowContext(ctx, query, id), time.Local)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &p, nil
}

// CountPrograms returns the total number of programs in the database
func (db *DB) CountPrograms(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM programs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return count, nil
}

// Channels lists the channels matching filter in display order
func (db *DB) Channels(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error) {
	query, args := channelsQuery(filter)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		var sub int
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Group, &ch.Ordering, &sub); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		ch.HasSubStream = sub != 0
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}
	return channels, nil
}

// DateRange returns the earliest program start and latest program end.
// Both are zero on an empty database.
func (db *DB) DateRange(ctx context.Context) (models.DateRange, error) {
	var earliest, latest sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, dateRangeQuery).Scan(&earliest, &latest); err != nil {
		return models.DateRange{}, fmt.Errorf("failed to read date range: %w", err)
	}
	var dr models.DateRange
	if earliest.Valid {
		dr.Earliest = time.Unix(earliest.Int64, 0)
	}
	if latest.Valid {
		dr.Latest = time.Unix(latest.Int64, 0)
	}
	return dr, nil
}

// Fetch returns the channels matching the request filter with every program
// intersecting [req.Start, req.End). Times are reported in req.Start's location.
func (db *DB) Fetch(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	channels, err := db.Channels(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	loc := req.Start.Location()
	query, args := programsQuery(req)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}

	dr, err := db.DateRange(ctx)
	if err != nil {
		return nil, err
	}
	dr.Earliest = dr.Earliest.In(loc)
	dr.Latest = dr.Latest.In(loc)

	return &models.ScheduleResponse{
		Channels:  assemble(channels, programs),
		DateRange: dr,
	}, nil
}
