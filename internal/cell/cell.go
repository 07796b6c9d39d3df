// Package cell positions program boxes against the current scroll offset.
package cell

import (
	"sort"

	"github.com/chris/tvgrid/internal/layout"
	"github.com/chris/tvgrid/pkg/models"
)

// DefaultMinVisibleSlice keeps the heading row of a clipped cell on screen
const DefaultMinVisibleSlice = 1.0

// StickyOffset returns how far a cell's inner content is pushed down so part
// of it stays visible after the cell's top scrolled above the viewport. The
// outer box does not move. The shift is capped at cellHeight - minSlice.
func StickyOffset(cellTop, cellHeight, viewportTop, minSlice float64, expanded bool) float64 {
	if expanded {
		return 0
	}
	if cellTop >= viewportTop || cellTop+cellHeight <= viewportTop {
		return 0
	}
	offset := viewportTop - cellTop
	limit := cellHeight - minSlice
	if limit < 0 {
		limit = 0
	}
	if offset > limit {
		offset = limit
	}
	return offset
}

// SelectionState is the selection and hover state of the grid
type SelectionState struct {
	Selected    string
	Hovered     string
	HoverExpand bool
}

// Expanded reports whether the program renders in its expanded form
func (s SelectionState) Expanded(programID string) bool {
	if programID == "" {
		return false
	}
	if programID == s.Selected {
		return true
	}
	return s.HoverExpand && programID == s.Hovered
}

// Box is a rect ready to paint
type Box struct {
	layout.Rect
	ContentOffset float64
	Selected      bool
	Hovered       bool
}

// Boxes decorates rects for painting at scroll offset scrollY. Expanded
// boxes take their natural content height from natural and sort last so
// they paint above their neighbours.
func Boxes(engine layout.Engine, rects []layout.Rect, scrollY float64, state SelectionState, natural func(programID string) float64, minSlice float64) []Box {
	boxes := make([]Box, 0, len(rects))
	for _, r := range rects {
		b := Box{
			Rect:     r,
			Selected: r.ProgramID == state.Selected,
			Hovered:  r.ProgramID == state.Hovered,
		}
		if state.Expanded(r.ProgramID) {
			h := 0.0
			if natural != nil {
				h = natural(r.ProgramID)
			}
			b.Rect = engine.Expand(r, h)
		} else if b.Selected {
			b.Z = layout.ZSelected
		}
		b.ContentOffset = StickyOffset(b.Y, b.Height, scrollY, minSlice, b.Expanded)
		boxes = append(boxes, b)
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Z < boxes[j].Z
	})
	return boxes
}

// Within filters boxes intersecting the vertical span [top, bottom)
func Within(boxes []Box, top, bottom float64) []Box {
	var out []Box
	for _, b := range boxes {
		if b.Y < bottom && b.Bottom() > top {
			out = append(out, b)
		}
	}
	return out
}

// Badge returns the short reservation marker shown in a cell heading
func Badge(r *models.Reservation) string {
	if r == nil {
		return ""
	}
	var badge string
	switch r.Status {
	case models.ReservationRecording:
		badge = "REC"
	case models.ReservationEnabled:
		badge = "RSV"
	case models.ReservationDisabled:
		badge = "OFF"
	default:
		return ""
	}
	switch r.Availability {
	case models.AvailabilityPartial:
		badge += "~"
	case models.AvailabilityUnavailable:
		badge += "!"
	}
	return badge
}
