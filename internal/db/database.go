package db

import (
	"context"
	"os"

	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

// ScheduleSource is the read surface shared by DB and ZDB
type ScheduleSource interface {
	schedule.Fetcher
	Close() error
	Path() string
	Channels(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error)
	DateRange(ctx context.Context) (models.DateRange, error)
	CountPrograms(ctx context.Context) (int, error)
}

var (
	_ ScheduleSource = (*DB)(nil)
	_ ScheduleSource = (*ZDB)(nil)
)

// DbType returns the implementation selected by DB_IMPL
func DbType() string {
	if os.Getenv("DB_IMPL") == "zombiezen" {
		return "zombiezen"
	}
	return "modernc"
}

// NewDatabase opens a read source using the implementation specified by DB_IMPL.
// DB_IMPL=zombiezen uses ZDB (zombiezen.com/go/sqlite, read-only).
// DB_IMPL=modernc or unset uses DB (modernc.org/sqlite).
func NewDatabase(dbPath string) (ScheduleSource, error) {
	if DbType() == "zombiezen" {
		return NewZ(dbPath)
	}
	return New(dbPath)
}
