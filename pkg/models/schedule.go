package models

import "time"

// Window is the time span the grid displays.
// Start always sits on the broadcast-day boundary (shifted by 12h when Extended)
// and End-Start is exactly 24h or 36h.
type Window struct {
	Start    time.Time
	End      time.Time
	Extended bool
}

// Duration returns End-Start
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Hours returns the window length in whole hours
func (w Window) Hours() int {
	return int(w.Duration() / time.Hour)
}

// Contains reports whether t falls in [Start, End)
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ChannelFilter selects channels either by group or by explicit ids.
// When ChannelIDs is non-empty it takes precedence over Group.
type ChannelFilter struct {
	Group      string   `json:"group,omitempty"`
	ChannelIDs []string `json:"channelIds,omitempty"`
}

// ScheduleRequest is sent to the schedule-fetch collaborator
type ScheduleRequest struct {
	Start  time.Time
	End    time.Time
	Filter ChannelFilter
}

// DateRange is the selectable span of broadcast days
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// ChannelSchedule holds one channel and its programs
type ChannelSchedule struct {
	Channel            Channel   `json:"channel"`
	Programs           []Program `json:"programs"`
	SubchannelPrograms []Program `json:"subchannelPrograms,omitempty"`
}

// ScheduleResponse is the collaborator's answer to a ScheduleRequest
type ScheduleResponse struct {
	Channels  []ChannelSchedule `json:"channels"`
	DateRange DateRange         `json:"dateRange"`
}
