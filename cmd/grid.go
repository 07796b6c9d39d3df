package cmd

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/logging"
	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/internal/tui"
	"github.com/chris/tvgrid/internal/viewport"
)

var (
	gridGroup    string
	gridChannels []string
	gridClock28  bool
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Open the interactive schedule grid",
	Long: `Opens the schedule grid for today's broadcast day in the terminal.

Drag or use the wheel to scroll, click a program to select it and click it again for details.
Press ? for the key bindings. Logs go to logging.file from the config.`,
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
	gridCmd.Flags().StringVarP(&gridGroup, "group", "g", "", "Channel group to show")
	gridCmd.Flags().StringSliceVarP(&gridChannels, "channel", "c", nil, "Channel ids to show (overrides --group)")
	gridCmd.Flags().BoolVar(&gridClock28, "clock28", false, "Show hours after midnight as 24-27")
}

func runGrid(cmd *cobra.Command, args []string) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("grid needs a terminal, use 'tvgrid list' for plain output")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("clock28") {
		cfg.Display.Clock28 = gridClock28
	}

	logger, logFile := logging.NewFile(cfg.Logging)
	defer logFile.Close()

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	store := schedule.New(src.fetcher,
		schedule.WithLogger(logger),
		schedule.WithFilter(channelFilter(cfg, gridGroup, gridChannels)),
	)

	m := tui.New(store, cfg,
		tui.WithLogger(logger),
		tui.WithContext(cmd.Context()),
		tui.WithReserver(src.reserve),
		tui.WithIntents(loggingIntents(logger)),
	)

	logger.Info("grid started", "source", src.name)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	return nil
}

// loggingIntents records the grid's intents in the log file
func loggingIntents(logger *slog.Logger) tui.Intents {
	return tui.Intents{
		OnSelect:       func(id string) { logger.Debug("select", "program", id) },
		OnDeselect:     func() { logger.Debug("deselect") },
		OnShowDetail:   func(id string) { logger.Debug("show detail", "program", id) },
		OnQuickReserve: func(id string) { logger.Debug("quick reserve", "program", id) },
		OnScroll: func(s viewport.ScrollState) {
			logger.Debug("scroll", "x", s.X, "y", s.Y, "at_bottom", s.AtBottom)
		},
		OnVisibleSlot: func(slot time.Time, offset int) {
			logger.Debug("visible slot", "slot", slot.Format(time.RFC3339), "display_offset", offset)
		},
		OnNavigate: func(c schedule.PageCursor) {
			logger.Debug("navigate", "date", c.SelectedDate.Format(time.DateOnly), "earliest", c.Earliest.Format(time.DateOnly), "latest", c.Latest.Format(time.DateOnly))
		},
	}
}
