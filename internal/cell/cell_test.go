package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/layout"
	"github.com/chris/tvgrid/pkg/models"
)

func TestStickyOffset(t *testing.T) {
	tests := []struct {
		name        string
		top, height float64
		viewportTop float64
		expanded    bool
		want        float64
	}{
		{"fully visible", 100, 60, 50, false, 0},
		{"top aligned", 100, 60, 100, false, 0},
		{"partially scrolled past", 100, 60, 130, false, 30},
		{"capped at min slice", 100, 60, 158, false, 50},
		{"fully above viewport", 100, 60, 160, false, 0},
		{"expanded cells never shift", 100, 60, 130, true, 0},
		{"shorter than slice", 100, 5, 102, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StickyOffset(tt.top, tt.height, tt.viewportTop, 10, tt.expanded)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectionState_Expanded(t *testing.T) {
	s := SelectionState{Selected: "a", Hovered: "b"}
	assert.True(t, s.Expanded("a"))
	assert.False(t, s.Expanded("b"), "hover expand off")
	assert.False(t, s.Expanded(""))

	s.HoverExpand = true
	assert.True(t, s.Expanded("b"))
}

func TestBoxes(t *testing.T) {
	engine := layout.Engine{HourHeight: 60, MinHeight: 1, ChannelWidth: 20}
	rects := []layout.Rect{
		{ProgramID: "sel", ChannelIndex: 0, X: 0, Y: 0, Width: 10, Height: 60, Split: true},
		{ProgramID: "plain", ChannelIndex: 1, X: 20, Y: 30, Width: 20, Height: 60},
		{ProgramID: "hover", ChannelIndex: 2, X: 40, Y: 90, Width: 20, Height: 30},
	}
	natural := func(id string) float64 {
		if id == "sel" {
			return 120
		}
		return 0
	}

	boxes := Boxes(engine, rects, 45, SelectionState{Selected: "sel", Hovered: "hover", HoverExpand: true}, natural, 2)
	require.Len(t, boxes, 3)

	assert.Equal(t, "plain", boxes[0].ProgramID, "base boxes paint first")
	assert.Equal(t, 15.0, boxes[0].ContentOffset)

	expanded := map[string]Box{}
	for _, b := range boxes[1:] {
		expanded[b.ProgramID] = b
	}
	sel := expanded["sel"]
	assert.True(t, sel.Expanded)
	assert.True(t, sel.Selected)
	assert.Equal(t, 120.0, sel.Height)
	assert.Equal(t, 20.0, sel.Width)
	assert.Zero(t, sel.ContentOffset)

	hover := expanded["hover"]
	assert.True(t, hover.Hovered)
	assert.Equal(t, 30.0, hover.Height, "no natural height keeps the time height")
}

func TestBoxes_SelectedWithoutExpansionIsRaised(t *testing.T) {
	engine := layout.Engine{HourHeight: 60, ChannelWidth: 20}
	rects := []layout.Rect{{ProgramID: "x"}, {ProgramID: "y"}}

	// HoverExpand only governs hover, selection always expands
	boxes := Boxes(engine, rects, 0, SelectionState{Hovered: "y"}, nil, 1)
	require.Len(t, boxes, 2)
	assert.Equal(t, layout.ZBase, boxes[0].Z)
	assert.Equal(t, layout.ZBase, boxes[1].Z)
	assert.True(t, boxes[1].Hovered)
}

func TestWithin(t *testing.T) {
	boxes := []Box{
		{Rect: layout.Rect{ProgramID: "a", Y: 0, Height: 10}},
		{Rect: layout.Rect{ProgramID: "b", Y: 10, Height: 10}},
		{Rect: layout.Rect{ProgramID: "c", Y: 40, Height: 10}},
	}
	got := Within(boxes, 10, 40)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ProgramID)
}

func TestBadge(t *testing.T) {
	assert.Empty(t, Badge(nil))
	assert.Empty(t, Badge(&models.Reservation{Status: models.ReservationNone}))
	assert.Equal(t, "REC", Badge(&models.Reservation{Status: models.ReservationRecording}))
	assert.Equal(t, "RSV~", Badge(&models.Reservation{Status: models.ReservationEnabled, Availability: models.AvailabilityPartial}))
	assert.Equal(t, "OFF!", Badge(&models.Reservation{Status: models.ReservationDisabled, Availability: models.AvailabilityUnavailable}))
}
