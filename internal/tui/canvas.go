package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// glyph is one terminal cell. A zero rune marks the trailing column of a
// double-width rune.
type glyph struct {
	r     rune
	style int
}

// canvas composes overlapping boxes before they are turned into styled
// lines. Columns left of minX are protected from writes.
type canvas struct {
	width, height int
	minX          int
	rows          [][]glyph
	styles        []lipgloss.Style
}

func newCanvas(width, height int) *canvas {
	c := &canvas{
		width:  width,
		height: height,
		rows:   make([][]glyph, height),
		styles: []lipgloss.Style{lipgloss.NewStyle()},
	}
	for y := range c.rows {
		row := make([]glyph, width)
		for x := range row {
			row[x] = glyph{r: ' '}
		}
		c.rows[y] = row
	}
	return c
}

// style registers s and returns its index
func (c *canvas) style(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

func (c *canvas) writable(x, y int) bool {
	return y >= 0 && y < c.height && x >= c.minX && x >= 0 && x < c.width
}

// fill paints the half-open rectangle [x0,x1)×[y0,y1) with blanks
func (c *canvas) fill(x0, y0, x1, y1, style int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if c.writable(x, y) {
				c.rows[y][x] = glyph{r: ' ', style: style}
			}
		}
	}
}

// text writes s at x,y truncated to maxWidth columns
func (c *canvas) text(x, y int, s string, maxWidth, style int) {
	if maxWidth <= 0 || y < 0 || y >= c.height {
		return
	}
	s = ansi.Truncate(s, maxWidth, "…")
	col := x
	for _, r := range s {
		w := runeWidth(r)
		if w == 0 {
			continue
		}
		if c.writable(col, y) {
			if w == 2 && c.writable(col+1, y) {
				c.rows[y][col] = glyph{r: r, style: style}
				c.rows[y][col+1] = glyph{r: 0, style: style}
			} else if w == 1 {
				c.rows[y][col] = glyph{r: r, style: style}
			} else {
				c.rows[y][col] = glyph{r: ' ', style: style}
			}
		}
		col += w
	}
}

// blank reports whether x,y has not been painted
func (c *canvas) blank(x, y int) bool {
	return c.writable(x, y) && c.rows[y][x].style == 0 && c.rows[y][x].r == ' '
}

func (c *canvas) set(x, y int, r rune, style int) {
	if c.writable(x, y) {
		c.rows[y][x] = glyph{r: r, style: style}
	}
}

// String renders the canvas, one styled run per change of style
func (c *canvas) String() string {
	lines := make([]string, c.height)
	for y, row := range c.rows {
		var line, run strings.Builder
		current := 0
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if current == 0 {
				line.WriteString(run.String())
			} else {
				line.WriteString(c.styles[current].Render(run.String()))
			}
			run.Reset()
		}
		for x, g := range row {
			r := g.r
			switch {
			case r == 0:
				if x > 0 && row[x-1].r != 0 && runeWidth(row[x-1].r) == 2 {
					continue
				}
				r = ' '
			case runeWidth(r) == 2 && (x+1 >= len(row) || row[x+1].r != 0):
				r = ' '
			}
			if g.style != current {
				flush()
				current = g.style
			}
			run.WriteRune(r)
		}
		flush()
		lines[y] = line.String()
	}
	return strings.Join(lines, "\n")
}

func runeWidth(r rune) int {
	return ansi.StringWidth(string(r))
}
