package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/chris/tvgrid/pkg/models"
)

// ZDB is a read-only schedule source on a zombiezen.com/go/sqlite connection.
// A single connection is not safe for concurrent use, so calls are serialized.
type ZDB struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	path string
}

// NewZ opens an initialized database read-only
func NewZ(dbPath string) (*ZDB, error) {
	dbPath, err := ResolvePath(dbPath)
	if err != nil {
		return nil, err
	}

	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlitex.ExecuteTransient(conn, "PRAGMA busy_timeout=5000", nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	var version int
	err = sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if version == 0 {
		conn.Close()
		return nil, ErrNotInitialized
	}

	return &ZDB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection
func (zdb *ZDB) Close() error {
	zdb.mu.Lock()
	defer zdb.mu.Unlock()
	return zdb.conn.Close()
}

// Path returns the database file path
func (zdb *ZDB) Path() string {
	return zdb.path
}

// withConn runs fn holding the connection, interrupting it when ctx ends
func (zdb *ZDB) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	zdb.mu.Lock()
	defer zdb.mu.Unlock()
	zdb.conn.SetInterrupt(ctx.Done())
	defer zdb.conn.SetInterrupt(nil)
	return fn(zdb.conn)
}

func columnText(stmt *sqlite.Stmt, col int) *string {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return nil
	}
	s := stmt.ColumnText(col)
	return &s
}

func (zdb *ZDB) channels(conn *sqlite.Conn, filter models.ChannelFilter) ([]models.Channel, error) {
	query, args := channelsQuery(filter)
	var channels []models.Channel
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			channels = append(channels, models.Channel{
				ID:           stmt.ColumnText(0),
				Name:         stmt.ColumnText(1),
				Group:        stmt.ColumnText(2),
				Ordering:     stmt.ColumnInt(3),
				HasSubStream: stmt.ColumnInt(4) != 0,
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

func (zdb *ZDB) dateRange(conn *sqlite.Conn, loc *time.Location) (models.DateRange, error) {
	var dr models.DateRange
	err := sqlitex.Execute(conn, dateRangeQuery, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if stmt.ColumnType(0) != sqlite.TypeNull {
				dr.Earliest = unixIn(stmt.ColumnInt64(0), loc)
			}
			if stmt.ColumnType(1) != sqlite.TypeNull {
				dr.Latest = unixIn(stmt.ColumnInt64(1), loc)
			}
			return nil
		},
	})
	if err != nil {
		return dr, fmt.Errorf("failed to read date range: %w", err)
	}
	return dr, nil
}

// Channels lists the channels matching filter in display order
func (zdb *ZDB) Channels(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error) {
	var channels []models.Channel
	err := zdb.withConn(ctx, func(conn *sqlite.Conn) error {
		var err error
		channels, err = zdb.channels(conn, filter)
		return err
	})
	return channels, err
}

// DateRange returns the earliest program start and latest program end
func (zdb *ZDB) DateRange(ctx context.Context) (models.DateRange, error) {
	var dr models.DateRange
	err := zdb.withConn(ctx, func(conn *sqlite.Conn) error {
		var err error
		dr, err = zdb.dateRange(conn, time.Local)
		return err
	})
	return dr, err
}

// CountPrograms returns the total number of programs
func (zdb *ZDB) CountPrograms(ctx context.Context) (int, error) {
	var count int
	err := zdb.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT COUNT(*) FROM programs", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return count, nil
}

// Fetch returns the channels matching the request filter with every program
// intersecting [req.Start, req.End)
func (zdb *ZDB) Fetch(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	loc := req.Start.Location()
	resp := &models.ScheduleResponse{}

	err := zdb.withConn(ctx, func(conn *sqlite.Conn) error {
		channels, err := zdb.channels(conn, req.Filter)
		if err != nil {
			return err
		}

		var programs []models.Program
		query, args := programsQuery(req)
		err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				programs = append(programs, models.Program{
					ID:          stmt.ColumnText(0),
					ChannelID:   stmt.ColumnText(1),
					Stream:      models.StreamRole(stmt.ColumnInt(2)),
					Start:       unixIn(stmt.ColumnInt64(3), loc),
					End:         unixIn(stmt.ColumnInt64(4), loc),
					Title:       stmt.ColumnText(5),
					Genre:       stmt.ColumnText(6),
					Description: stmt.ColumnText(7),
					Reservation: reservationFrom(columnText(stmt, 8), columnText(stmt, 9)),
				})
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("failed to query programs: %w", err)
		}

		dr, err := zdb.dateRange(conn, loc)
		if err != nil {
			return err
		}

		resp.Channels = assemble(channels, programs)
		resp.DateRange = dr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
