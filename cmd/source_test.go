package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/config"
	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/internal/logging"
	"github.com/chris/tvgrid/internal/remote"
	"github.com/chris/tvgrid/pkg/models"
)

func TestOpenSource_Remote(t *testing.T) {
	cfg := config.Default()
	cfg.Source.RemoteURL = "http://127.0.0.1:8765"

	src, err := openSource(cfg, logging.Discard())
	require.NoError(t, err)
	defer src.Close()

	assert.IsType(t, &remote.Client{}, src.fetcher)
	assert.Equal(t, "http://127.0.0.1:8765", src.name)
	assert.NoError(t, src.Close())
}

func TestOpenSource_LocalDatabase(t *testing.T) {
	t.Setenv("DB_IMPL", "")
	cfg := config.Default()
	cfg.Source.DBPath = seedDB(t)

	src, err := openSource(cfg, logging.Discard())
	require.NoError(t, err)
	defer src.Close()

	assert.IsType(t, &db.DB{}, src.fetcher)
	assert.Equal(t, cfg.Source.DBPath, src.name)

	resp, err := src.fetcher.Fetch(context.Background(), models.ScheduleRequest{
		Start: local(3, 4, 0),
		End:   local(4, 4, 0),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Channels, 2)

	require.NoError(t, src.reserve(context.Background(), "p1", models.Reservation{Status: models.ReservationEnabled}))
}

func TestOpenSource_ZombiezenIsReadOnly(t *testing.T) {
	t.Setenv("DB_IMPL", "zombiezen")
	cfg := config.Default()
	cfg.Source.DBPath = seedDB(t)

	src, err := openSource(cfg, logging.Discard())
	require.NoError(t, err)
	defer src.Close()

	assert.IsType(t, &db.ZDB{}, src.fetcher)
	err = src.reserve(context.Background(), "p1", models.Reservation{Status: models.ReservationEnabled})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestOpenSource_NotInitialized(t *testing.T) {
	t.Setenv("DB_IMPL", "")
	cfg := config.Default()
	cfg.Source.DBPath = filepath.Join(t.TempDir(), "empty.db")
	cfg.Source.Timeout = time.Second

	_, err := openSource(cfg, logging.Discard())
	assert.ErrorIs(t, err, db.ErrNotInitialized)
}
