package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

func programReservation(t *testing.T, path, id string) *models.Reservation {
	t.Helper()
	database, err := db.New(path)
	require.NoError(t, err)
	defer database.Close()

	p, err := database.GetProgram(context.Background(), id)
	require.NoError(t, err)
	return p.Reservation
}

func TestReserve_SetsAndRemoves(t *testing.T) {
	path := seedDB(t)

	output, err := execute(t, "reserve", "p3", "--db", path, "--status", "recording", "--availability", "partial")
	require.NoError(t, err)
	assert.Equal(t, "Reserved p3 (recording, partial)\n", output)
	assert.Equal(t, &models.Reservation{Status: models.ReservationRecording, Availability: models.AvailabilityPartial},
		programReservation(t, path, "p3"))

	output, err = execute(t, "reserve", "p2", "--db", path, "--status", "none")
	require.NoError(t, err)
	assert.Equal(t, "Reservation removed: p2\n", output)
	assert.Nil(t, programReservation(t, path, "p2"))
}

func TestReserve_Defaults(t *testing.T) {
	path := seedDB(t)

	_, err := execute(t, "reserve", "p1", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, &models.Reservation{Status: models.ReservationEnabled, Availability: models.AvailabilityFull},
		programReservation(t, path, "p1"))
}

func TestReserve_Errors(t *testing.T) {
	path := seedDB(t)

	_, err := execute(t, "reserve", "missing", "--db", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = execute(t, "reserve", "p1", "--db", path, "--status", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown reservation status "maybe"`)

	_, err = execute(t, "reserve", "p1", "--db", path, "--availability", "some")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown availability "some"`)
}

func TestReserve_ReadOnlySource(t *testing.T) {
	path := seedDB(t)
	t.Setenv("DB_IMPL", "zombiezen")

	_, err := execute(t, "reserve", "p1", "--db", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errReadOnly)
}
