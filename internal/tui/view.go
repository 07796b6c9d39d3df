package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/ncruces/go-strftime"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/internal/cell"
	"github.com/chris/tvgrid/internal/timescale"
	"github.com/chris/tvgrid/internal/viewport"
	"github.com/chris/tvgrid/pkg/models"
)

// Styles
var (
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	focusDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	blurDotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	channelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	scaleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	indicatorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cellStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	cellBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	separatorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	helpKeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpDescStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

const marginX = 2

func (m *Model) renderView() string {
	switch m.viewState {
	case DetailView:
		return m.renderDetail()
	case HelpView:
		return m.renderHelp()
	}

	width, _ := m.size()
	gridWidth, gridHeight := m.gridSize()

	var b strings.Builder
	b.WriteString(ansi.Truncate(m.renderHeader(), width, ""))
	b.WriteString("\n")
	b.WriteString(m.renderChannels(width))
	b.WriteString("\n")

	if m.snap == nil {
		c := newCanvas(width, gridHeight)
		msg := "No schedule loaded"
		if m.loading {
			msg = "Loading schedule..."
		}
		c.text(marginX, 0, msg, width-marginX, c.style(statusBarStyle))
		b.WriteString(c.String())
	} else {
		b.WriteString(m.renderGrid(width, gridWidth, gridHeight))
	}

	b.WriteString("\n")
	b.WriteString(ansi.Truncate(m.renderStatusBar(), width, ""))
	return b.String()
}

func (m *Model) renderHeader() string {
	dot := focusDotStyle.Render("●")
	if !m.focused {
		dot = blurDotStyle.Render("○")
	}

	cursor := m.store.Cursor()
	date := strftime.Format("%a %Y-%m-%d", cursor.SelectedDate)
	if m.store.Extended() {
		date += " (extended)"
	}
	if broadcast.SameDay(cursor.SelectedDate, broadcast.TodayStart(m.now())) {
		date += " Today"
	}

	header := headerStyle.Render("TV Guide") + " " + dot + " " + headerStyle.Render(date)
	if m.loading {
		header += " " + m.spinner.View()
	}
	return header
}

func (m *Model) renderChannels(width int) string {
	c := newCanvas(width, 1)
	if m.snap == nil {
		return c.String()
	}
	c.minX = scaleWidth
	style := c.style(channelStyle)
	offX := m.vp.Offset().X
	cw := int(m.engine.ChannelWidth)
	for i, ch := range m.snap.Channels {
		x := scaleWidth + i*cw - int(math.Floor(offX))
		name := ch.Name
		if name == "" {
			name = ch.ID
		}
		c.text(x+1, 0, name, cw-1, style)
	}
	return c.String()
}

// screenSpan returns the grid-relative terminal cells covered by b.
// Edges are floored so adjacent programs share no row.
func screenSpan(b cell.Box, off viewport.Point) (x0, x1, y0, y1 int) {
	x0 = int(math.Floor(b.X - off.X))
	x1 = int(math.Floor(b.X + b.Width - off.X))
	y0 = int(math.Floor(b.Y - off.Y))
	y1 = int(math.Floor(b.Bottom() - off.Y))
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, x1, y0, y1
}

func (m *Model) renderGrid(width, gridWidth, gridHeight int) string {
	c := newCanvas(width, gridHeight)
	off := m.vp.Offset()
	window := m.snap.Window

	// time scale
	scale := c.style(scaleStyle)
	dates := c.style(dateStyle)
	labels := timescale.Labels(window, m.engine.HourHeight, timescale.Options{
		Clock28:    m.display.Clock28,
		DateFormat: m.display.DateFormat,
	})
	for _, l := range labels {
		row := int(math.Floor(l.Y - off.Y))
		if l.Date != "" {
			c.text(0, row+1, l.Date, scaleWidth-1, dates)
		}
	}
	for _, l := range labels {
		row := int(math.Floor(l.Y - off.Y))
		c.text(0, row, fmt.Sprintf("%5s:00", l.Hour), scaleWidth-1, scale)
	}

	// cells, lowest stacking order first
	c.minX = scaleWidth
	border := c.style(cellBorderStyle)
	visible := cell.Within(m.boxes(), off.Y, off.Y+float64(gridHeight))
	for _, b := range visible {
		p, ok := m.program(b.ProgramID)
		if !ok {
			continue
		}
		x0, x1, y0, y1 := screenSpan(b, off)
		x0 += scaleWidth
		x1 += scaleWidth
		style := c.style(m.cellStyle(p, b))
		c.fill(x0, y0, x1, y1, style)
		for y := y0; y < y1; y++ {
			c.set(x0, y, '│', border)
		}

		textWidth := x1 - x0 - 1
		top := y0 + int(math.Floor(b.ContentOffset))
		for i, line := range contentLines(p, textWidth, m.display.Clock28) {
			y := top + i
			if y >= y1 {
				break
			}
			c.text(x0+1, y, line, textWidth, style)
		}
	}

	// current time
	now := m.now()
	if y, ok := timescale.Indicator(window, now, m.engine.HourHeight); ok {
		row := int(math.Floor(y - off.Y))
		if row >= 0 && row < gridHeight {
			ind := c.style(indicatorStyle)
			c.minX = 0
			c.fill(0, row, scaleWidth, row+1, ind)
			c.text(0, row, formatClock(now, m.display.Clock28)+" ▶", scaleWidth, ind)
			for x := scaleWidth; x < scaleWidth+gridWidth; x++ {
				if c.blank(x, row) {
					c.set(x, row, '─', ind)
				}
			}
		}
	}

	return c.String()
}

func (m *Model) cellStyle(p models.Program, b cell.Box) lipgloss.Style {
	s := cellStyle
	if color, ok := m.display.GenreColors[strings.ToLower(p.Genre)]; ok && color != "" {
		s = s.Background(lipgloss.Color(color))
	}
	switch {
	case b.Selected:
		s = s.Bold(true).Reverse(true)
	case b.Hovered:
		s = s.Bold(true)
	}
	return s
}

// formatClock formats t on the grid's hour numbering
func formatClock(t time.Time, clock28 bool) string {
	return fmt.Sprintf("%02d:%02d", timescale.HourNumber(t, clock28), t.Minute())
}

// contentLines is the text shown inside a program cell: a heading with
// the start time, title and reservation badge followed by the wrapped
// description
func contentLines(p models.Program, width int, clock28 bool) []string {
	heading := formatClock(p.Start, clock28) + " " + p.Title
	if badge := cell.Badge(p.Reservation); badge != "" {
		heading = "[" + badge + "] " + heading
	}
	lines := []string{heading}
	if p.Description == "" || width <= 0 {
		return lines
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(p.Description)
	for _, line := range strings.Split(wrapped, "\n") {
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

func (m *Model) renderStatusBar() string {
	if m.status != "" {
		if strings.HasPrefix(m.status, "Load failed") || strings.HasPrefix(m.status, "Reservation failed") {
			return errorStyle.Render(m.status)
		}
		return statusBarStyle.Render(m.status)
	}
	if p, ok := m.program(m.selection.Selected); ok {
		text := fmt.Sprintf("%s-%s %s", formatClock(p.Start, m.display.Clock28), formatClock(p.End, m.display.Clock28), p.Title)
		if p.Genre != "" {
			text += " · " + p.Genre
		}
		if badge := cell.Badge(p.Reservation); badge != "" {
			text += " [" + badge + "]"
		}
		return valueStyle.Render(text)
	}

	var parts []string
	for _, b := range m.keys.shortHelp() {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return statusBarStyle.Render(strings.Join(parts, "  "))
}

func (m *Model) renderDetail() string {
	width, _ := m.size()
	contentWidth := max(20, width-2*marginX)
	margin := strings.Repeat(" ", marginX)

	p, ok := m.program(m.selection.Selected)
	if !ok {
		return margin + "No program selected"
	}

	var b strings.Builder
	b.WriteString(margin + headerStyle.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("=", contentWidth)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s%s %s\n", margin, labelStyle.Render(label), valueStyle.Render(value))
	}
	if ch, ok := m.channel(p.ChannelID); ok {
		name := ch.Name
		if p.Stream == models.SubStream {
			name += " (sub)"
		}
		field("Channel:", name)
	}
	field("Time:", fmt.Sprintf("%s %s-%s",
		strftime.Format("%a %m/%d", broadcast.DateOf(p.End)),
		formatClock(p.Start, m.display.Clock28),
		formatClock(p.End, m.display.Clock28)))
	if p.Genre != "" {
		field("Genre:", p.Genre)
	}
	reservation := "none"
	if p.Reservation != nil && p.Reservation.Status != models.ReservationNone {
		reservation = p.Reservation.Status.String() + " (" + p.Reservation.Availability.String() + ")"
	}
	field("Reservation:", reservation)

	if p.Description != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(lipgloss.NewStyle().Width(contentWidth).Render(p.Description), "\n") {
			b.WriteString(margin + strings.TrimRight(line, " ") + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("─", contentWidth)))
	b.WriteString("\n")
	var parts []string
	for _, binding := range m.keys.bindingsForView(DetailView) {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	b.WriteString(margin + statusBarStyle.Render(strings.Join(parts, "  ")))
	return b.String()
}

func (m *Model) channel(id string) (models.Channel, bool) {
	if m.snap == nil {
		return models.Channel{}, false
	}
	for _, ch := range m.snap.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Channel{}, false
}

func (m *Model) renderHelp() string {
	margin := strings.Repeat(" ", marginX)
	var b strings.Builder
	b.WriteString(margin + headerStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.bindingsForView(GridView) {
		h := binding.Help()
		fmt.Fprintf(&b, "%s%s %s\n", margin, helpKeyStyle.Render(fmt.Sprintf("%-10s", h.Key)), helpDescStyle.Render(h.Desc))
	}
	b.WriteString("\n")
	b.WriteString(margin + statusBarStyle.Render("Mouse: drag to scroll, click to select, click again for detail"))
	return b.String()
}
