package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/internal/guide"
	"github.com/chris/tvgrid/internal/logging"
	"github.com/chris/tvgrid/internal/schedule"
)

var (
	listDate       string
	listExtended   bool
	listGroup      string
	listChannels   []string
	listTimeFormat string

	// now is the clock of the date-dependent commands
	now = time.Now
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the schedule of a broadcast day",
	Long: `Prints every program of one broadcast day as a table, ordered by channel.

A broadcast day runs from 04:00 to 04:00 the next morning. Late in the day, today's listing
is extended to cover the following morning as well; --extended forces that window for any date.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listDate, "date", "d", "today", "Broadcast date: today, yesterday, tomorrow or YYYY-MM-DD")
	listCmd.Flags().BoolVarP(&listExtended, "extended", "e", false, "Use the 36 hour window")
	listCmd.Flags().StringVarP(&listGroup, "group", "g", "", "Channel group to list")
	listCmd.Flags().StringSliceVarP(&listChannels, "channel", "c", nil, "Channel ids to list (overrides --group)")
	listCmd.Flags().StringVarP(&listTimeFormat, "time-format", "t", guide.DefaultTimeFormat, "Start and end format (strftime)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	date, err := parseBroadcastDate(listDate, now())
	if err != nil {
		return err
	}
	extended := listExtended
	if !cmd.Flags().Changed("extended") {
		extended = broadcast.IsExtendedEligible(date, now())
	}

	src, err := openSource(cfg, logging.Discard())
	if err != nil {
		return err
	}
	defer src.Close()

	store := schedule.New(src.fetcher,
		schedule.WithNow(now),
		schedule.WithFilter(channelFilter(cfg, listGroup, listChannels)),
	)
	if _, err := store.Fetch(cmd.Context(), date, extended); err != nil {
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	out := cmd.OutOrStdout()
	opts := guide.Options{TimeFormat: listTimeFormat}
	if width, ok := terminalWidth(out); ok {
		opts.MaxWidth = width
	}

	snap := store.Snapshot()
	fmt.Fprintln(out, guide.FormatTable(guide.RowsFromSnapshot(snap), windowTitle(date, snap.Window.Extended), opts))
	return nil
}

// parseBroadcastDate resolves a date argument to its broadcast-day start in
// the local time zone
func parseBroadcastDate(s string, now time.Time) (time.Time, error) {
	today := broadcast.TodayStart(now)
	switch s {
	case "", "today":
		return today, nil
	case "yesterday":
		return broadcast.AddDays(today, -1), nil
	case "tomorrow":
		return broadcast.AddDays(today, 1), nil
	}

	parsed, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), broadcast.BoundaryHour, 0, 0, 0, now.Location()), nil
}

func windowTitle(date time.Time, extended bool) string {
	title := strftime.Format("%a %Y-%m-%d", date)
	if extended {
		title += " (extended)"
	}
	return title
}

// isTerminal returns true if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// terminalWidth returns the column count of a terminal writer
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}
