package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/tvgrid/internal/config"
	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/internal/remote"
	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

// errReadOnly is returned by the reserver of a read-only source
var errReadOnly = errors.New("source is read-only (DB_IMPL=zombiezen)")

// source bundles what the commands need from a schedule backend
type source struct {
	fetcher schedule.Fetcher
	reserve func(ctx context.Context, programID string, r models.Reservation) error
	closer  io.Closer
	name    string
}

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openSource picks the remote server when one is configured, otherwise the
// local database
func openSource(cfg *config.Config, logger *slog.Logger) (*source, error) {
	if cfg.Source.RemoteURL != "" {
		client := remote.NewClient(cfg.Source.RemoteURL,
			remote.WithHTTPClient(&http.Client{Timeout: cfg.Source.Timeout}),
			remote.WithLogger(logger),
			remote.WithRetry(cfg.Source.Retries, 200*time.Millisecond),
			remote.WithBatchSize(cfg.Source.BatchSize),
		)
		return &source{
			fetcher: client,
			reserve: client.Reserve,
			name:    cfg.Source.RemoteURL,
		}, nil
	}

	database, err := db.NewDatabase(cfg.Source.DBPath)
	if err != nil {
		if errors.Is(err, db.ErrNotInitialized) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src := &source{
		fetcher: database,
		closer:  database,
		name:    database.Path(),
		reserve: func(context.Context, string, models.Reservation) error {
			return errReadOnly
		},
	}
	if w, ok := database.(*db.DB); ok {
		src.reserve = w.SetReservation
	}
	return src, nil
}
