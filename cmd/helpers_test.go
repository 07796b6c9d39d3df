package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

// local returns a January 2024 instant in the local time zone
func local(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.Local)
}

// fixNow pins the command clock for the duration of the test
func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

// resetFlags puts every flag of cmd and its subcommands back to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if v, ok := f.Value.(pflag.SliceValue); ok {
			v.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns everything it wrote.
// The config is pointed at a missing file so the user's config is ignored.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Setenv("TVGRID_DB", "")
	t.Setenv("TVGRID_REMOTE_URL", "")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// sampleSchedule has two channels on Jan 3 2024, local time. NHK airs into
// the next morning and BS1 has one program on its sub stream.
func sampleSchedule() *models.ScheduleResponse {
	return &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{
			{
				Channel: models.Channel{ID: "nhk", Name: "NHK", Group: "terrestrial", Ordering: 1},
				Programs: []models.Program{
					{ID: "p1", Start: local(3, 4, 0), End: local(3, 6, 0), Title: "Morning News", Genre: "news"},
					{
						ID: "p2", Start: local(3, 6, 0), End: local(3, 8, 0), Title: "Drama Hour", Genre: "drama",
						Description: "A family saga.",
						Reservation: &models.Reservation{Status: models.ReservationEnabled},
					},
					{ID: "p3", Start: local(3, 8, 0), End: local(3, 9, 0), Title: "Quiz Time", Genre: "variety"},
					{ID: "p4", Start: local(4, 1, 0), End: local(4, 6, 0), Title: "Night Movie", Genre: "movie"},
				},
			},
			{
				Channel: models.Channel{ID: "bs1", Name: "BS1", Group: "bs", Ordering: 2},
				Programs: []models.Program{
					{ID: "b1", Start: local(3, 9, 0), End: local(3, 11, 0), Title: "Live Baseball", Genre: "sports"},
				},
				SubchannelPrograms: []models.Program{
					{ID: "b2", Start: local(3, 9, 0), End: local(3, 10, 0), Title: "Highlights", Genre: "sports"},
				},
			},
		},
	}
}

// seedDB creates a database holding sampleSchedule and returns its path
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.db")
	database, err := db.NewForTesting(path)
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Import(context.Background(), sampleSchedule())
	require.NoError(t, err)
	return path
}
