// Package timescale produces the hour axis of the grid and the position of
// the current-time marker.
package timescale

import (
	"fmt"
	"math"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/pkg/models"
)

// DefaultDateFormat is the strftime layout of date labels
const DefaultDateFormat = "%m/%d %a"

// DateLabelEvery is the clock-hour interval of date labels
const DateLabelEvery = 4

// Options are the display preferences affecting labels
type Options struct {
	// Clock28 shows hours before the day boundary as 24..27
	Clock28    bool
	DateFormat string
}

// Label is one hour mark on the axis
type Label struct {
	Time time.Time
	Y    float64
	Hour string
	// Date is empty unless this hour carries a date marker
	Date string
}

// HourNumber returns the displayed hour of t
func HourNumber(t time.Time, clock28 bool) int {
	h := t.Hour()
	if clock28 && h < broadcast.BoundaryHour {
		h += 24
	}
	return h
}

// Labels returns one label per hour of the window. Every DateLabelEvery-th
// clock hour also carries the broadcast date, except at the window's first
// hour.
func Labels(w models.Window, hourHeight float64, opts Options) []Label {
	format := opts.DateFormat
	if format == "" {
		format = DefaultDateFormat
	}

	n := int(w.Duration() / time.Hour)
	labels := make([]Label, 0, n)
	for i := 0; i < n; i++ {
		t := w.Start.Add(time.Duration(i) * time.Hour)
		l := Label{
			Time: t,
			Y:    float64(i) * hourHeight,
			Hour: fmt.Sprintf("%d", HourNumber(t, opts.Clock28)),
		}
		if i > 0 && t.Hour()%DateLabelEvery == 0 {
			l.Date = strftime.Format(format, broadcast.TodayStart(t))
		}
		labels = append(labels, l)
	}
	return labels
}

// Indicator returns the y position of the current-time marker. It is hidden
// when now is outside [w.Start, w.End).
func Indicator(w models.Window, now time.Time, hourHeight float64) (float64, bool) {
	if !w.Contains(now) {
		return 0, false
	}
	return now.Sub(w.Start).Hours() * hourHeight, true
}

// UntilNextMinute returns the delay to the next whole minute, the first
// tick of the indicator cadence
func UntilNextMinute(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute)
	return next.Sub(now)
}

// SlotAt returns the start of the hour slot shown at scroll offset y
func SlotAt(w models.Window, y, hourHeight float64) time.Time {
	if hourHeight <= 0 || y <= 0 {
		return w.Start
	}
	hour := int(math.Floor(y / hourHeight))
	if max := int(w.Duration()/time.Hour) - 1; hour > max {
		hour = max
	}
	return w.Start.Add(time.Duration(hour) * time.Hour)
}
