package db

import (
	"strings"
	"time"

	"github.com/chris/tvgrid/pkg/models"
)

// channelColumns is the common SELECT clause for channel queries
const channelColumns = `c.id, c.name, c.channel_group, c.ordering, c.has_sub_stream`

// programColumns is the common SELECT clause for program queries.
// Reservation columns are NULL for programs without a reservation.
const programColumns = `
	p.id, p.channel_id, p.stream, p.start_time, p.end_time,
	p.title, p.genre, p.description,
	r.status, r.availability
`

// programFromJoins is the common FROM/JOIN clause for program queries
const programFromJoins = `
	FROM programs p
	JOIN channels c ON p.channel_id = c.id
	LEFT JOIN reservations r ON r.program_id = p.id
`

const dateRangeQuery = `SELECT MIN(start_time), MAX(end_time) FROM programs`

// filterClause builds the channel filter condition on alias c. Explicit
// channel ids take precedence over the group.
func filterClause(filter models.ChannelFilter) (string, []any) {
	var conds []string
	var args []any

	switch {
	case len(filter.ChannelIDs) > 0:
		marks := strings.TrimSuffix(strings.Repeat("?,", len(filter.ChannelIDs)), ",")
		conds = append(conds, "c.id IN ("+marks+")")
		for _, id := range filter.ChannelIDs {
			args = append(args, id)
		}
	case filter.Group != "":
		conds = append(conds, "c.channel_group = ?")
		args = append(args, filter.Group)
	}

	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

// channelsQuery selects the channels matching filter in display order
func channelsQuery(filter models.ChannelFilter) (string, []any) {
	where, args := filterClause(filter)
	return "SELECT " + channelColumns + " FROM channels c WHERE " + where + " ORDER BY c.ordering, c.id", args
}

// programsQuery selects the programs intersecting [start, end) on the channels matching filter
func programsQuery(req models.ScheduleRequest) (string, []any) {
	where, args := filterClause(req.Filter)
	query := "SELECT " + programColumns + programFromJoins + `
		WHERE p.start_time < ? AND p.end_time > ? AND ` + where + `
		ORDER BY p.channel_id, p.stream, p.start_time`
	return query, append([]any{req.End.Unix(), req.Start.Unix()}, args...)
}

// reservationFrom decodes the nullable reservation columns
func reservationFrom(status, availability *string) *models.Reservation {
	if status == nil {
		return nil
	}
	s, err := models.ParseReservationStatus(*status)
	if err != nil || s == models.ReservationNone {
		return nil
	}
	r := &models.Reservation{Status: s}
	if availability != nil {
		if a, err := models.ParseAvailability(*availability); err == nil {
			r.Availability = a
		}
	}
	return r
}

// assemble groups programs under their channels in response order
func assemble(channels []models.Channel, programs []models.Program) []models.ChannelSchedule {
	out := make([]models.ChannelSchedule, len(channels))
	pos := make(map[string]int, len(channels))
	for i, ch := range channels {
		out[i] = models.ChannelSchedule{Channel: ch}
		pos[ch.ID] = i
	}
	for _, p := range programs {
		i, ok := pos[p.ChannelID]
		if !ok {
			continue
		}
		if p.Stream == models.SubStream {
			out[i].SubchannelPrograms = append(out[i].SubchannelPrograms, p)
		} else {
			out[i].Programs = append(out[i].Programs, p)
		}
	}
	return out
}

// unixIn converts stored seconds to loc
func unixIn(sec int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(sec, 0).In(loc)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
