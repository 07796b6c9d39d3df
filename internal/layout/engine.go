// Package layout converts program intervals into grid rectangles.
//
// Units are abstract: the TUI treats one unit as one terminal row (vertical)
// or column (horizontal), a graphical host would use pixels. Every result is
// a pure function of the snapshot, so callers cache Layout output per
// snapshot version instead of recomputing on every scroll.
package layout

import (
	"math"
	"time"

	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

// Stacking orders for rendered cells
const (
	ZBase     = 0
	ZSelected = 1
	ZExpanded = 2
)

// Engine holds the geometry preferences used to place cells
type Engine struct {
	HourHeight   float64
	MinHeight    float64
	ChannelWidth float64
}

// Rect is the placed box of one program
type Rect struct {
	ProgramID    string
	ChannelIndex int
	Role         models.StreamRole
	X, Y         float64
	Width        float64
	Height       float64
	Z            int
	Split        bool
	Expanded     bool
}

// Bottom returns the bottom edge of the rect
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

func hours(d time.Duration) float64 {
	return d.Hours()
}

// Y returns the top of a program's cell, clamped to the top of the grid
func (e Engine) Y(p models.Program, w models.Window) float64 {
	y := hours(p.Start.Sub(w.Start)) * e.HourHeight
	return math.Max(0, y)
}

// NaturalHeight is the unclipped duration-derived height
func (e Engine) NaturalHeight(p models.Program) float64 {
	return hours(p.Duration()) * e.HourHeight
}

// Height returns the height of a program's cell. The time-derived height is
// clipped at both window edges and then floored at MinHeight.
func (e Engine) Height(p models.Program, w models.Window) float64 {
	y := e.Y(p, w)
	top := hours(p.Start.Sub(w.Start)) * e.HourHeight
	h := e.NaturalHeight(p)
	if top < 0 {
		// started before the window: only the visible tail counts
		h += top
	}
	if total := e.TotalHeight(w); y+h > total {
		h = total - y
	}
	if h < e.MinHeight {
		h = e.MinHeight
	}
	return h
}

// TotalHeight is the height of the whole window
func (e Engine) TotalHeight(w models.Window) float64 {
	return w.Duration().Hours() * e.HourHeight
}

// TotalWidth is the width of n channel columns
func (e Engine) TotalWidth(n int) float64 {
	return float64(n) * e.ChannelWidth
}

// Visible reports whether any part of p falls inside w
func Visible(p models.Program, w models.Window) bool {
	return p.Start.Before(w.End) && p.End.After(w.Start)
}

// Layout places every visible program of the snapshot. Main-stream programs
// sit in the left half of a split column and sub-stream programs in the right.
func (e Engine) Layout(snap *schedule.Snapshot, cache *SplitCache) []Rect {
	if snap == nil {
		return nil
	}
	var rects []Rect
	for i, ch := range snap.Channels {
		x := float64(i) * e.ChannelWidth
		for _, role := range []models.StreamRole{models.MainStream, models.SubStream} {
			for _, p := range snap.Programs(ch.ID, role) {
				if !Visible(p, snap.Window) {
					continue
				}
				r := Rect{
					ProgramID:    p.ID,
					ChannelIndex: i,
					Role:         role,
					X:            x,
					Y:            e.Y(p, snap.Window),
					Width:        e.ChannelWidth,
					Height:       e.Height(p, snap.Window),
					Z:            ZBase,
				}
				if cache.Split(snap, p) {
					r.Split = true
					r.Width = e.ChannelWidth / 2
					if role == models.SubStream {
						r.X += r.Width
					}
				}
				rects = append(rects, r)
			}
		}
	}
	return rects
}

// Expand returns the expanded form of r: full channel width, raised above
// its neighbours and sized to its content. Collapsing is using r again.
func (e Engine) Expand(r Rect, naturalHeight float64) Rect {
	out := r
	out.X = float64(r.ChannelIndex) * e.ChannelWidth
	out.Width = e.ChannelWidth
	out.Split = false
	out.Z = ZExpanded
	out.Expanded = true
	if naturalHeight > 0 {
		out.Height = naturalHeight
	}
	return out
}
