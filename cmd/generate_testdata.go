package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/pkg/models"
)

var (
	generateDays     int
	generateChannels int
	generateSeed     int64
)

var generateTestdataCmd = &cobra.Command{
	Use:   "generate-testdata [path]",
	Short: "Generate a sample schedule database",
	Long:  "Generates a database with a random schedule around today's broadcast day, for trying the grid and for benchmarking. The default path is testdata/perf/schedule.db.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerateTestdata,
}

func init() {
	rootCmd.AddCommand(generateTestdataCmd)
	generateTestdataCmd.Flags().IntVar(&generateDays, "days", 7, "Broadcast days to generate, centered on today")
	generateTestdataCmd.Flags().IntVar(&generateChannels, "channels", 8, "Number of channels")
	generateTestdataCmd.Flags().Int64Var(&generateSeed, "seed", 1, "Random seed")
}

func runGenerateTestdata(cmd *cobra.Command, args []string) error {
	path := filepath.Join("testdata", "perf", "schedule.db")
	if len(args) == 1 {
		path = args[0]
	}

	// Remove existing database
	os.Remove(path)

	start := time.Now()
	fmt.Fprintf(cmd.OutOrStdout(), "Generating %d days for %d channels...\n", generateDays, generateChannels)

	first := broadcast.AddDays(broadcast.TodayStart(now()), -generateDays/2)
	resp := generateSchedule(rand.New(rand.NewSource(generateSeed)), first, generateDays, generateChannels)

	database, _, err := openForWrite(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.Import(cmd.Context(), resp)
	if err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s (%d programs, %d reservations) in %s\n",
		database.Path(), stats.Programs, stats.Reservations, time.Since(start).Round(time.Millisecond))
	return nil
}

var (
	sampleGroups = []string{"terrestrial", "bs", "cs"}
	sampleGenres = []string{"news", "drama", "sports", "movie", "anime", "documentary", "variety"}
	sampleTitles = []string{
		"Morning News", "Weather Report", "Afternoon Drama", "Live Baseball", "Cooking Today",
		"World Documentary", "Late Night Talk", "Feature Film", "Anime Hour", "Quiz Show",
		"Travel Diary", "Market Watch", "Music Station", "Science Frontier", "Classic Cinema",
	}
	sampleLengths = []time.Duration{30 * time.Minute, time.Hour, 90 * time.Minute, 2 * time.Hour}
)

// generateSchedule fills days broadcast days from first with back-to-back
// programs. Every third channel also gets a sub stream on its first day.
func generateSchedule(rng *rand.Rand, first time.Time, days, channels int) *models.ScheduleResponse {
	end := broadcast.AddDays(first, days)
	resp := &models.ScheduleResponse{
		DateRange: models.DateRange{Earliest: first, Latest: end},
	}

	for c := 0; c < channels; c++ {
		ch := models.Channel{
			ID:       fmt.Sprintf("ch%02d", c+1),
			Name:     fmt.Sprintf("Channel %d", c+1),
			Group:    sampleGroups[c%len(sampleGroups)],
			Ordering: c + 1,
		}
		cs := models.ChannelSchedule{Channel: ch}

		for t, n := first, 0; t.Before(end); n++ {
			p := sampleProgram(rng, ch.ID, n, t)
			if p.End.After(end) {
				p.End = end
			}
			cs.Programs = append(cs.Programs, p)
			t = p.End
		}

		if c%3 == 2 {
			subEnd := broadcast.AddDays(first, 1)
			for t, n := first.Add(6*time.Hour), 0; t.Before(subEnd); n++ {
				p := sampleProgram(rng, ch.ID+"-sub", n, t)
				if p.End.After(subEnd) {
					p.End = subEnd
				}
				cs.SubchannelPrograms = append(cs.SubchannelPrograms, p)
				t = p.End
			}
		}

		resp.Channels = append(resp.Channels, cs)
	}
	return resp
}

func sampleProgram(rng *rand.Rand, prefix string, n int, start time.Time) models.Program {
	p := models.Program{
		ID:          fmt.Sprintf("%s-%05d", prefix, n),
		Start:       start,
		End:         start.Add(sampleLengths[rng.Intn(len(sampleLengths))]),
		Title:       sampleTitles[rng.Intn(len(sampleTitles))],
		Genre:       sampleGenres[rng.Intn(len(sampleGenres))],
		Description: "Generated program for testing.",
	}
	if rng.Intn(20) == 0 {
		p.Reservation = &models.Reservation{Status: models.ReservationEnabled}
	}
	return p
}
