package guide

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/ncruces/go-strftime"
)

// DefaultTimeFormat is the strftime layout of the start and end columns
const DefaultTimeFormat = "%H:%M"

// Options control table rendering
type Options struct {
	// TimeFormat is a strftime layout, DefaultTimeFormat when empty
	TimeFormat string
	// MaxWidth truncates the title column so lines fit; 0 disables it
	MaxWidth int
}

var headers = [...]string{"Channel", "Start", "End", "Length", "Title", "Genre", "Reserved"}

// FormatTable formats rows as an aligned table under title
func FormatTable(rows []Row, title string, opts Options) string {
	if len(rows) == 0 {
		return formatEmptyState(title)
	}

	var sb strings.Builder

	sb.WriteString(formatTableHeader(title))
	sb.WriteString("\n\n")

	cells := make([][len(headers)]string, len(rows))
	for i, r := range rows {
		cells[i] = rowCells(r, opts)
	}
	widths := calculateColumnWidths(cells)
	if opts.MaxWidth > 0 {
		fitTitle(&widths, opts.MaxWidth)
	}

	sb.WriteString(formatLine(headers, widths))
	sb.WriteString("\n")
	for _, c := range cells {
		sb.WriteString(formatLine(c, widths))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(formatSummaryStats(rows))

	return sb.String()
}

func formatEmptyState(title string) string {
	return formatTableHeader(title) + "\n\nNo programs in this window."
}

func formatTableHeader(title string) string {
	return title + "\n" + strings.Repeat("=", ansi.StringWidth(title))
}

func rowCells(r Row, opts Options) [len(headers)]string {
	format := opts.TimeFormat
	if format == "" {
		format = DefaultTimeFormat
	}
	genre := r.Genre
	if genre == "" {
		genre = "-"
	}
	return [len(headers)]string{
		r.ChannelDisplay(),
		strftime.Format(format, r.Start),
		strftime.Format(format, r.End),
		r.FormatDuration(),
		r.Title,
		genre,
		r.ReservationDisplay(),
	}
}

const titleColumn = 4

func calculateColumnWidths(cells [][len(headers)]string) [len(headers)]int {
	var widths [len(headers)]int
	for i, h := range headers {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range cells {
		for i, c := range row {
			if w := ansi.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// fitTitle shrinks the title column until a line fits maxWidth, keeping at
// least the header width
func fitTitle(widths *[len(headers)]int, maxWidth int) {
	total := 2 * (len(headers) - 1)
	for _, w := range widths {
		total += w
	}
	if total <= maxWidth {
		return
	}
	widths[titleColumn] = max(widths[titleColumn]-(total-maxWidth), ansi.StringWidth(headers[titleColumn]))
}

func formatLine(cells [len(headers)]string, widths [len(headers)]int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		c = ansi.Truncate(c, widths[i], "…")
		if i == len(cells)-1 {
			parts[i] = c
			continue
		}
		parts[i] = c + strings.Repeat(" ", widths[i]-ansi.StringWidth(c))
	}
	return strings.Join(parts, "  ")
}

func formatSummaryStats(rows []Row) string {
	channels := make(map[string]bool)
	for _, r := range rows {
		channels[r.Channel] = true
	}

	plural := ""
	if len(channels) != 1 {
		plural = "s"
	}
	stats := fmt.Sprintf("Total: %d programs across %d channel%s", len(rows), len(channels), plural)

	counts := CountReservations(rows)
	if len(counts) == 0 {
		return stats
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%d %s", c.Count, c.Status)
	}
	return stats + "\nReservations: " + strings.Join(parts, ", ")
}
