package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestTodayStart_AfterBoundary(t *testing.T) {
	now := at(2024, 1, 1, 12, 30)
	assert.Equal(t, at(2024, 1, 1, 4, 0), TodayStart(now))
}

func TestTodayStart_BeforeBoundary(t *testing.T) {
	now := at(2024, 1, 2, 3, 59)
	assert.Equal(t, at(2024, 1, 1, 4, 0), TodayStart(now))
}

func TestTodayStart_ExactlyAtBoundary(t *testing.T) {
	now := at(2024, 1, 2, 4, 0)
	assert.Equal(t, at(2024, 1, 2, 4, 0), TodayStart(now))
}

func TestTodayStart_CrossesMonth(t *testing.T) {
	now := at(2024, 3, 1, 1, 0)
	assert.Equal(t, at(2024, 2, 29, 4, 0), TodayStart(now))
}

// Every instant before the boundary hour belongs to the previous calendar day
func TestDateOf_BeforeBoundaryIsPreviousDay(t *testing.T) {
	start := at(2023, 12, 25, 0, 0)
	for day := 0; day < 14; day++ {
		for minute := 0; minute < BoundaryHour*60; minute += 7 {
			ts := start.AddDate(0, 0, day).Add(time.Duration(minute) * time.Minute)
			y, m, d := ts.Date()
			want := time.Date(y, m, d-1, BoundaryHour, 0, 0, 0, time.UTC)
			assert.Equal(t, want, DateOf(ts), "instant %s", ts)
		}
	}
}

func TestDateOf_DaytimeIsSameDay(t *testing.T) {
	assert.Equal(t, at(2024, 1, 1, 4, 0), DateOf(at(2024, 1, 1, 4, 1)))
	assert.Equal(t, at(2024, 1, 1, 4, 0), DateOf(at(2024, 1, 1, 23, 59)))
}

func TestDateOf_ExactBoundaryClosesDay(t *testing.T) {
	// An end instant at 04:00 closes the previous broadcast day
	assert.Equal(t, at(2024, 1, 7, 4, 0), DateOf(at(2024, 1, 8, 4, 0)))
}

func TestIsExtendedEligible(t *testing.T) {
	today := at(2024, 1, 1, 4, 0)

	tests := []struct {
		name     string
		selected time.Time
		now      time.Time
		want     bool
	}{
		{"morning", today, at(2024, 1, 1, 9, 0), false},
		{"just before threshold", today, at(2024, 1, 1, 16, 59), false},
		{"at threshold", today, at(2024, 1, 1, 17, 0), true},
		{"late evening", today, at(2024, 1, 1, 23, 30), true},
		{"after midnight still today", today, at(2024, 1, 2, 3, 59), true},
		{"new broadcast day", today, at(2024, 1, 2, 4, 0), false},
		{"not today", at(2024, 1, 2, 4, 0), at(2024, 1, 1, 18, 0), false},
		{"yesterday", at(2023, 12, 31, 4, 0), at(2024, 1, 1, 18, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExtendedEligible(tt.selected, tt.now))
		})
	}
}

func TestDisplayWindow_Normal(t *testing.T) {
	w := DisplayWindow(at(2024, 1, 1, 4, 0), false)
	assert.Equal(t, at(2024, 1, 1, 4, 0), w.Start)
	assert.Equal(t, at(2024, 1, 2, 4, 0), w.End)
	assert.False(t, w.Extended)
	assert.Equal(t, DayLength, w.Duration())
}

func TestDisplayWindow_ExtendedScenario(t *testing.T) {
	selected := at(2024, 1, 1, 4, 0)
	now := at(2024, 1, 1, 17, 0)

	extended := IsExtendedEligible(selected, now)
	w := DisplayWindow(selected, extended)

	assert.True(t, w.Extended)
	assert.Equal(t, at(2024, 1, 1, 16, 0), w.Start)
	assert.Equal(t, at(2024, 1, 3, 4, 0), w.End)
	assert.Equal(t, ExtendedLength, w.Duration())
	assert.Equal(t, selected, SelectedDate(w))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, at(2024, 1, 3, 4, 0), AddDays(at(2024, 1, 1, 4, 0), 2))
	assert.Equal(t, at(2023, 12, 31, 4, 0), AddDays(at(2024, 1, 1, 4, 0), -1))
}

func TestAddDays_KeepsBoundaryAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database not available")
	}
	before := time.Date(2024, 3, 9, 4, 0, 0, 0, loc)
	after := AddDays(before, 1)
	assert.Equal(t, 4, after.Hour())
	assert.Equal(t, 10, after.Day())
}

func TestBeforeAndSameDay(t *testing.T) {
	a := at(2024, 1, 1, 4, 0)
	b := at(2024, 1, 2, 4, 0)

	assert.True(t, Before(a, b))
	assert.False(t, Before(b, a))
	assert.False(t, Before(a, a))
	assert.True(t, SameDay(a, at(2024, 1, 1, 23, 0)))
	assert.False(t, SameDay(a, b))
}

func TestDayOffsetAt(t *testing.T) {
	normal := DisplayWindow(at(2024, 1, 1, 4, 0), false)
	assert.Equal(t, 0, DayOffsetAt(normal, at(2024, 1, 2, 3, 0)))

	extended := DisplayWindow(at(2024, 1, 1, 4, 0), true)
	assert.Equal(t, 0, DayOffsetAt(extended, at(2024, 1, 1, 20, 0)))
	assert.Equal(t, 0, DayOffsetAt(extended, at(2024, 1, 2, 3, 59)))
	assert.Equal(t, 1, DayOffsetAt(extended, at(2024, 1, 2, 4, 0)))
	assert.Equal(t, 1, DayOffsetAt(extended, at(2024, 1, 2, 22, 0)))
}
