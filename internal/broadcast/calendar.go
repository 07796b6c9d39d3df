// Package broadcast implements the broadcast-day calendar used by the guide.
// A broadcast day starts at BoundaryHour (04:00) instead of midnight, so
// programs airing at 02:00 belong to the previous calendar day's schedule.
package broadcast

import (
	"time"

	"github.com/chris/tvgrid/pkg/models"
)

const (
	// BoundaryHour is the clock hour at which a broadcast day starts
	BoundaryHour = 4

	// ExtendedThresholdHours is how close to the next boundary today's page
	// must be before it widens to absorb the following day
	ExtendedThresholdHours = 11

	DayLength      = 24 * time.Hour
	ExtendedLength = 36 * time.Hour
	ExtendedShift  = 12 * time.Hour

	boundaryOffset = BoundaryHour * time.Hour
)

// boundaryOn returns the boundary instant on the given calendar day
func boundaryOn(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, BoundaryHour, 0, 0, 0, loc)
}

// TodayStart returns the start of the broadcast day containing now.
// Before BoundaryHour that is the previous calendar day's boundary.
func TodayStart(now time.Time) time.Time {
	year, month, day := now.Date()
	if now.Hour() < BoundaryHour {
		day--
	}
	return boundaryOn(year, month, day, now.Location())
}

// DateOf maps an instant to its broadcast date. One millisecond is taken off
// first, so an instant sitting exactly on a boundary resolves to the day that
// boundary closes. Use it for exclusive end instants.
func DateOf(t time.Time) time.Time {
	shifted := t.Add(-time.Millisecond).Add(-boundaryOffset)
	year, month, day := shifted.Date()
	return boundaryOn(year, month, day, t.Location())
}

// AddDays steps a broadcast date by n calendar days, keeping the boundary
// hour across DST transitions
func AddDays(date time.Time, n int) time.Time {
	year, month, day := date.Date()
	return boundaryOn(year, month, day+n, date.Location())
}

// SameDay reports whether two broadcast dates name the same calendar day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// Before reports whether broadcast date a is strictly earlier than b at day granularity
func Before(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// AdjustedHour returns the number of whole clock hours elapsed since the
// broadcast day started (0..23)
func AdjustedHour(now time.Time) int {
	return (now.Hour() - BoundaryHour + 24) % 24
}

// IsExtendedEligible reports whether the page for selected should widen to
// 36 hours: selected must be today's broadcast day and fewer than
// ExtendedThresholdHours must remain until the next boundary.
func IsExtendedEligible(selected, now time.Time) bool {
	if !SameDay(selected, TodayStart(now)) {
		return false
	}
	return AdjustedHour(now) >= 24-ExtendedThresholdHours
}

// DisplayWindow builds the grid window for a broadcast date
func DisplayWindow(selected time.Time, extended bool) models.Window {
	start := selected
	length := DayLength
	if extended {
		start = start.Add(ExtendedShift)
		length = ExtendedLength
	}
	return models.Window{
		Start:    start,
		End:      start.Add(length),
		Extended: extended,
	}
}

// SelectedDate recovers the broadcast date a window was built from
func SelectedDate(w models.Window) time.Time {
	if w.Extended {
		return w.Start.Add(-ExtendedShift)
	}
	return w.Start
}

// DayOffsetAt returns which broadcast day of the window t falls in: 0 for
// the selected day, 1 for the day absorbed into an extended window's tail
func DayOffsetAt(w models.Window, t time.Time) int {
	if !w.Extended {
		return 0
	}
	next := AddDays(SelectedDate(w), 1)
	if t.Before(next) {
		return 0
	}
	return 1
}
