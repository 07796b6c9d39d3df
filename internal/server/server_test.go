package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/internal/remote"
	"github.com/chris/tvgrid/pkg/models"
)

var start = time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)

func seededDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewForTesting(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Import(context.Background(), &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{
			{
				Channel:  models.Channel{ID: "nhk", Name: "NHK", Group: "terrestrial", Ordering: 1},
				Programs: []models.Program{{ID: "n1", Start: start, End: start.Add(time.Hour), Title: "News"}},
			},
			{
				Channel:  models.Channel{ID: "bs1", Name: "BS1", Group: "bs", Ordering: 2},
				Programs: []models.Program{{ID: "b1", Start: start.Add(time.Hour), End: start.Add(3 * time.Hour), Title: "Match"}},
			},
		},
	})
	require.NoError(t, err)
	return database
}

func scheduleURL(base string, extra string) string {
	return base + "/api/schedule?start=2024-01-01T04:00:00Z&end=2024-01-02T04:00:00Z" + extra
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader), "request id generated")
}

func TestSchedule_ReturnsWindow(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, scheduleURL(srv.URL, "&group=bs"), nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader), "client id echoed")

	var body models.ScheduleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Channels, 1)
	assert.Equal(t, "bs1", body.Channels[0].Channel.ID)
	require.Len(t, body.Channels[0].Programs, 1)
	assert.Equal(t, "Match", body.Channels[0].Programs[0].Title)
}

func TestSchedule_RepeatedChannelParameter(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	resp, err := http.Get(scheduleURL(srv.URL, "&channel=nhk&channel=bs1"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body models.ScheduleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Channels, 2)
}

func TestSchedule_BadParameters(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	for _, q := range []string{
		"",
		"?start=yesterday&end=2024-01-02T04:00:00Z",
		"?start=2024-01-02T04:00:00Z&end=2024-01-01T04:00:00Z",
	} {
		resp, err := http.Get(srv.URL + "/api/schedule" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestReserve(t *testing.T) {
	database := seededDB(t)
	srv := httptest.NewServer(New(database).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/programs/n1/reserve", "application/json",
		strings.NewReader(`{"status":"enabled","availability":"partial"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	p, err := database.GetProgram(context.Background(), "n1")
	require.NoError(t, err)
	require.NotNil(t, p.Reservation)
	assert.Equal(t, models.ReservationEnabled, p.Reservation.Status)
	assert.Equal(t, models.AvailabilityPartial, p.Reservation.Availability)
}

func TestReserve_UnknownProgram(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/programs/nope/reserve", "application/json",
		strings.NewReader(`{"status":"enabled"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReserve_BadBody(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t)).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/programs/n1/reserve", "application/json",
		strings.NewReader(`{"status":"maybe"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(New(seededDB(t), WithRateLimit(0.001, 1)).Handler())
	defer srv.Close()

	first, err := http.Get(scheduleURL(srv.URL, ""))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(scheduleURL(srv.URL, ""))
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is not limited")
}

func TestRemoteClientRoundTrip(t *testing.T) {
	database := seededDB(t)
	srv := httptest.NewServer(New(database).Handler())
	defer srv.Close()

	client := remote.NewClient(srv.URL, remote.WithRetry(1, 0))
	ctx := context.Background()

	require.NoError(t, client.Reserve(ctx, "b1", models.Reservation{Status: models.ReservationRecording}))

	resp, err := client.Fetch(ctx, models.ScheduleRequest{Start: start, End: start.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, resp.Channels, 2)
	assert.Equal(t, "nhk", resp.Channels[0].Channel.ID)

	b1 := resp.Channels[1].Programs[0]
	require.NotNil(t, b1.Reservation)
	assert.Equal(t, models.ReservationRecording, b1.Reservation.Status)
	assert.True(t, start.Equal(resp.DateRange.Earliest))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(seededDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	client := remote.NewClient("http://"+ln.Addr().String(), remote.WithRetry(5, 20*time.Millisecond))
	require.NoError(t, client.Health(context.Background()))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
