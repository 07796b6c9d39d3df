package cmd

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/internal/timescale"
)

var (
	windowDate     string
	windowNow      string
	windowExtended bool
	windowClock28  bool
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Show the display window of a broadcast date",
	Long: `Prints the window the grid would show for a broadcast date: its start and end, whether it
is extended, the hour labels and where the current-time marker sits. Use --now to evaluate
another moment.`,
	RunE: runWindow,
}

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.Flags().StringVarP(&windowDate, "date", "d", "today", "Broadcast date: today, yesterday, tomorrow or YYYY-MM-DD")
	windowCmd.Flags().StringVar(&windowNow, "now", "", "Evaluate at this RFC3339 instant instead of the current time")
	windowCmd.Flags().BoolVarP(&windowExtended, "extended", "e", false, "Force the 36 hour window")
	windowCmd.Flags().BoolVar(&windowClock28, "clock28", false, "Show hours after midnight as 24-27")
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	current := now()
	if windowNow != "" {
		current, err = time.Parse(time.RFC3339, windowNow)
		if err != nil {
			return fmt.Errorf("invalid --now (expected RFC3339): %w", err)
		}
	}

	date, err := parseBroadcastDate(windowDate, current)
	if err != nil {
		return err
	}

	eligible := broadcast.IsExtendedEligible(date, current)
	w := broadcast.DisplayWindow(date, eligible || windowExtended)

	clock28 := cfg.Display.Clock28
	if cmd.Flags().Changed("clock28") {
		clock28 = windowClock28
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Broadcast date: %s\n", strftime.Format("%a %Y-%m-%d", date))
	fmt.Fprintf(out, "Window:         %s - %s (%dh)\n",
		strftime.Format("%Y-%m-%d %H:%M", w.Start),
		strftime.Format("%Y-%m-%d %H:%M", w.End),
		w.Hours())
	fmt.Fprintf(out, "Extended:       %s\n", yesNo(w.Extended))
	fmt.Fprintf(out, "Eligible:       %s (adjusted hour %d)\n", yesNo(eligible), broadcast.AdjustedHour(current))

	if y, ok := timescale.Indicator(w, current, 1); ok {
		fmt.Fprintf(out, "Now:            %s, %.2f hours into the window\n", clock(current, clock28), y)
	} else {
		fmt.Fprintf(out, "Now:            %s, outside the window\n", clock(current, clock28))
	}

	fmt.Fprintln(out)
	labels := timescale.Labels(w, 1, timescale.Options{Clock28: clock28, DateFormat: cfg.Display.DateFormat})
	for _, l := range labels {
		if l.Date != "" {
			fmt.Fprintf(out, "%5s:00  %s\n", l.Hour, l.Date)
			continue
		}
		fmt.Fprintf(out, "%5s:00\n", l.Hour)
	}
	return nil
}

func clock(t time.Time, clock28 bool) string {
	return fmt.Sprintf("%02d:%02d", timescale.HourNumber(t, clock28), t.Minute())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
