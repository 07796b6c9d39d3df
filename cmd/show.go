package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/pkg/models"
)

// neighborSpan is how far around a program show looks for its neighbors
const neighborSpan = 6 * time.Hour

// Styles for program details
var (
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Cyan
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("255")) // White
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	reservedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // Green
	contextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242")) // Gray
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Dark gray
)

var showCmd = &cobra.Command{
	Use:   "show <program-id>",
	Short: "Display program details with its neighbors",
	Long:  "Display the details of a program from the local database together with the programs airing before and after it on the same stream.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if !isTerminal(cmd.OutOrStdout()) {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		database, err := db.New(cfg.Source.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		p, err := database.GetProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		channel := p.ChannelID
		channels, err := database.Channels(cmd.Context(), models.ChannelFilter{ChannelIDs: []string{p.ChannelID}})
		if err != nil {
			return err
		}
		if len(channels) == 1 && channels[0].Name != "" {
			channel = channels[0].Name
		}

		resp, err := database.Fetch(cmd.Context(), models.ScheduleRequest{
			Start:  p.Start.Add(-neighborSpan),
			End:    p.End.Add(neighborSpan),
			Filter: models.ChannelFilter{ChannelIDs: []string{p.ChannelID}},
		})
		if err != nil {
			return err
		}
		before, after := neighbors(resp, *p)

		displayProgramWithContext(cmd.OutOrStdout(), channel, before, *p, after)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// neighbors splits the programs on p's stream into those ending by p's start
// and those starting at or after its end
func neighbors(resp *models.ScheduleResponse, p models.Program) (before, after []models.Program) {
	for _, cs := range resp.Channels {
		if cs.Channel.ID != p.ChannelID {
			continue
		}
		programs := cs.Programs
		if p.Stream == models.SubStream {
			programs = cs.SubchannelPrograms
		}
		for _, other := range programs {
			switch {
			case other.ID == p.ID:
			case !other.End.After(p.Start):
				before = append(before, other)
			case !other.Start.Before(p.End):
				after = append(after, other)
			}
		}
	}
	return before, after
}

func displayProgramWithContext(w io.Writer, channel string, before []models.Program, p models.Program, after []models.Program) {
	displayDetailedProgram(w, channel, p)

	if len(before) > 0 || len(after) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, separatorStyle.Render("  ─────────────────────────────────────────────────────────────────────"))
		fmt.Fprintln(w)
	}

	for _, other := range before {
		displaySimpleProgram(w, other)
	}
	fmt.Fprintf(w, "  %s %s\n",
		titleStyle.Render(timeSpan(p)),
		valueStyle.Render(p.Title))
	for _, other := range after {
		displaySimpleProgram(w, other)
	}
}

func displayDetailedProgram(w io.Writer, channel string, p models.Program) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Title:"), titleStyle.Render(p.Title))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Channel:"), valueStyle.Render(channelLabel(channel, p.Stream)))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Airs:"), valueStyle.Render(p.Start.Format("Mon 2006-01-02")+" "+timeSpan(p)))

	if p.Genre != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Genre:"), valueStyle.Render(p.Genre))
	}

	if p.Reservation != nil && p.Reservation.Status != models.ReservationNone {
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Reservation:"),
			reservedStyle.Render(fmt.Sprintf("%s (%s)", p.Reservation.Status, p.Reservation.Availability)))
	} else {
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Reservation:"),
			contextStyle.Render("(none)"))
	}

	if p.Description != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Description:"), valueStyle.Render(p.Description))
	}
}

func displaySimpleProgram(w io.Writer, p models.Program) {
	fmt.Fprintf(w, "  %s %s\n",
		contextStyle.Render(timeSpan(p)),
		contextStyle.Render(p.Title))
}

func timeSpan(p models.Program) string {
	return p.Start.Format("15:04") + "-" + p.End.Format("15:04")
}

func channelLabel(channel string, role models.StreamRole) string {
	if role == models.SubStream {
		return channel + " (sub)"
	}
	return channel
}
