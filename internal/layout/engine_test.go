package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

var windowStart = time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)

func testWindow() models.Window {
	return models.Window{Start: windowStart, End: windowStart.Add(24 * time.Hour)}
}

func program(id string, offset, length time.Duration) models.Program {
	return models.Program{
		ID:    id,
		Start: windowStart.Add(offset),
		End:   windowStart.Add(offset + length),
	}
}

func testEngine() Engine {
	return Engine{HourHeight: 60, MinHeight: 10, ChannelWidth: 20}
}

func TestY_ProgramAtWindowStart(t *testing.T) {
	e := testEngine()
	assert.Equal(t, 0.0, e.Y(program("p", 0, time.Hour), testWindow()))
}

func TestY_HalfHourIn(t *testing.T) {
	e := testEngine()
	p := program("p", 30*time.Minute, 30*time.Minute)
	assert.Equal(t, 30.0, e.Y(p, testWindow()))
	assert.Equal(t, 30.0, e.Height(p, testWindow()))
}

func TestY_ClampedAtTop(t *testing.T) {
	e := testEngine()
	p := program("p", -time.Hour, 2*time.Hour)
	assert.Equal(t, 0.0, e.Y(p, testWindow()))
	assert.Equal(t, 60.0, e.Height(p, testWindow()), "only the visible hour counts")
}

func TestHeight_ClippedAtBottom(t *testing.T) {
	e := testEngine()
	w := testWindow()
	total := e.TotalHeight(w)
	require.Equal(t, 1440.0, total)

	for _, tc := range []struct {
		offset, length time.Duration
	}{
		{23 * time.Hour, 2 * time.Hour},
		{23*time.Hour + 50*time.Minute, 3 * time.Hour},
		{22 * time.Hour, 10 * time.Hour},
	} {
		p := program("p", tc.offset, tc.length)
		y := e.Y(p, w)
		h := e.Height(p, w)
		naive := y + e.NaturalHeight(p)
		require.Greater(t, naive, total)
		assert.GreaterOrEqual(t, h, e.MinHeight)
		if total-y >= e.MinHeight {
			assert.Equal(t, total-y, h)
		}
	}
}

func TestHeight_MinimumFloor(t *testing.T) {
	e := testEngine()
	p := program("short", time.Hour, time.Minute)
	assert.Equal(t, e.MinHeight, e.Height(p, testWindow()))
}

func TestTotalWidth(t *testing.T) {
	assert.Equal(t, 60.0, testEngine().TotalWidth(3))
}

func TestVisible(t *testing.T) {
	w := testWindow()
	assert.True(t, Visible(program("a", -time.Hour, 2*time.Hour), w))
	assert.False(t, Visible(program("b", -2*time.Hour, 2*time.Hour), w), "ends exactly at window start")
	assert.False(t, Visible(program("c", 24*time.Hour, time.Hour), w))
}

func TestExpand(t *testing.T) {
	e := testEngine()
	r := Rect{ProgramID: "p", ChannelIndex: 2, X: 50, Y: 30, Width: 10, Height: 30, Split: true, Role: models.SubStream}

	x := e.Expand(r, 90)
	assert.Equal(t, 40.0, x.X)
	assert.Equal(t, 20.0, x.Width)
	assert.Equal(t, 90.0, x.Height)
	assert.Equal(t, 30.0, x.Y, "top edge stays put")
	assert.Equal(t, ZExpanded, x.Z)
	assert.False(t, x.Split)
	assert.True(t, x.Expanded)

	assert.Equal(t, 10.0, r.Width, "original rect is untouched so collapse is reverting to it")
}

func splitSnapshot(t *testing.T, version uint64) *schedule.Snapshot {
	t.Helper()
	resp := &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{
			{
				Channel: models.Channel{ID: "c1", Ordering: 1, HasSubStream: true},
				Programs: []models.Program{
					program("m1", 0, time.Hour),
					program("m2", time.Hour, time.Hour),
				},
				SubchannelPrograms: []models.Program{
					program("s1", 90*time.Minute, time.Hour),
				},
			},
			{
				Channel:  models.Channel{ID: "c2", Ordering: 2},
				Programs: []models.Program{program("x1", 0, 2*time.Hour)},
			},
		},
	}
	return schedule.NewSnapshot(version, testWindow(), resp)
}

func TestLayout_SplitsOverlappingStreams(t *testing.T) {
	e := testEngine()
	snap := splitSnapshot(t, 1)
	rects := e.Layout(snap, NewSplitCache())

	byID := map[string]Rect{}
	for _, r := range rects {
		byID[r.ProgramID] = r
	}
	require.Len(t, byID, 4)

	assert.False(t, byID["m1"].Split, "m1 ends before s1 starts")
	assert.Equal(t, 20.0, byID["m1"].Width)

	assert.True(t, byID["m2"].Split)
	assert.Equal(t, 10.0, byID["m2"].Width)
	assert.Equal(t, 0.0, byID["m2"].X)

	assert.True(t, byID["s1"].Split)
	assert.Equal(t, 10.0, byID["s1"].X, "sub stream takes the right half")

	assert.False(t, byID["x1"].Split)
	assert.Equal(t, 20.0, byID["x1"].X)
	assert.Equal(t, 1, byID["x1"].ChannelIndex)
}

func TestLayout_NoSplitWithoutSubStreamFlag(t *testing.T) {
	resp := &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{{
			Channel:            models.Channel{ID: "c1", Ordering: 1},
			Programs:           []models.Program{program("m1", 0, 2*time.Hour)},
			SubchannelPrograms: []models.Program{program("s1", time.Hour, time.Hour)},
		}},
	}
	snap := schedule.NewSnapshot(1, testWindow(), resp)

	for _, r := range testEngine().Layout(snap, NewSplitCache()) {
		assert.False(t, r.Split, r.ProgramID)
		assert.Equal(t, 20.0, r.Width, r.ProgramID)
	}
}

func TestSplitCache_InvalidatedOnNewSnapshot(t *testing.T) {
	cache := NewSplitCache()
	first := splitSnapshot(t, 1)
	m2, ok := first.Program("m2")
	require.True(t, ok)

	assert.True(t, cache.Split(first, m2))
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Split(first, m2))
	assert.Equal(t, 1, cache.Len(), "memoized")

	// same id, no overlap in the replacement snapshot
	resp := &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{{
			Channel:  models.Channel{ID: "c1", HasSubStream: true},
			Programs: []models.Program{program("m2", time.Hour, time.Hour)},
		}},
	}
	second := schedule.NewSnapshot(2, testWindow(), resp)
	m2, ok = second.Program("m2")
	require.True(t, ok)
	assert.False(t, cache.Split(second, m2))
	assert.Equal(t, 1, cache.Len())
}

func TestSplitCache_KeyedByRole(t *testing.T) {
	resp := &models.ScheduleResponse{
		Channels: []models.ChannelSchedule{{
			Channel:            models.Channel{ID: "c1", HasSubStream: true},
			Programs:           []models.Program{program("same", 0, time.Hour)},
			SubchannelPrograms: []models.Program{program("same", 2*time.Hour, time.Hour)},
		}},
	}
	snap := schedule.NewSnapshot(1, testWindow(), resp)
	cache := NewSplitCache()

	main := snap.Programs("c1", models.MainStream)[0]
	sub := snap.Programs("c1", models.SubStream)[0]
	assert.False(t, cache.Split(snap, main))
	assert.False(t, cache.Split(snap, sub))
	assert.Equal(t, 2, cache.Len())
}

func TestLayout_NilSnapshot(t *testing.T) {
	assert.Nil(t, testEngine().Layout(nil, nil))
}
