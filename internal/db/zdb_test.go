package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/pkg/models"
)

// seededPath writes the sample schedule with DB and returns the file path
func seededPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.db")
	database, err := NewForTesting(path)
	require.NoError(t, err)
	importSample(t, database)
	require.NoError(t, database.Close())
	return path
}

func TestZDB_MatchesDB(t *testing.T) {
	path := seededPath(t)
	req := models.ScheduleRequest{Start: at(1, 4, 0), End: at(2, 4, 0)}
	ctx := context.Background()

	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	zdb, err := NewZ(path)
	require.NoError(t, err)
	defer zdb.Close()

	want, err := database.Fetch(ctx, req)
	require.NoError(t, err)
	got, err := zdb.Fetch(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestZDB_CountAndRange(t *testing.T) {
	zdb, err := NewZ(seededPath(t))
	require.NoError(t, err)
	defer zdb.Close()

	ctx := context.Background()
	count, err := zdb.CountPrograms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	dr, err := zdb.DateRange(ctx)
	require.NoError(t, err)
	assert.True(t, at(1, 4, 0).Equal(dr.Earliest))

	channels, err := zdb.Channels(ctx, models.ChannelFilter{Group: "terrestrial"})
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "gr1", channels[0].ID)
}

func TestZDB_CancelledContext(t *testing.T) {
	zdb, err := NewZ(seededPath(t))
	require.NoError(t, err)
	defer zdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = zdb.Fetch(ctx, models.ScheduleRequest{Start: at(1, 4, 0), End: at(2, 4, 0)})
	assert.Error(t, err)
}

func TestNewDatabase_SelectsImplementation(t *testing.T) {
	path := seededPath(t)

	t.Setenv("DB_IMPL", "zombiezen")
	src, err := NewDatabase(path)
	require.NoError(t, err)
	_, ok := src.(*ZDB)
	assert.True(t, ok)
	require.NoError(t, src.Close())

	t.Setenv("DB_IMPL", "")
	src, err = NewDatabase(path)
	require.NoError(t, err)
	_, ok = src.(*DB)
	assert.True(t, ok)
	require.NoError(t, src.Close())
}

func TestNewZ_Uninitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	database, err := NewWithOptions(path, Options{SkipSchemaCheck: true})
	require.NoError(t, err)
	require.NoError(t, database.Close())

	_, err = NewZ(path)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
