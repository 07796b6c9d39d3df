// Package guide formats a fetched schedule window as plain text tables for
// non-interactive output.
package guide

import (
	"strconv"
	"time"

	"github.com/chris/tvgrid/pkg/models"
)

// Row is one program line of the table
type Row struct {
	Channel     string
	Stream      models.StreamRole
	Start       time.Time
	End         time.Time
	Title       string
	Genre       string
	Reservation *models.Reservation
}

// Duration returns the airing length
func (r Row) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// FormatDuration returns a human-readable airing length
// Examples: "2h", "1h 30m", "45m", "0m"
func (r Row) FormatDuration() string {
	d := r.Duration()
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)

	if hours > 0 {
		if minutes > 0 {
			return formatWithSuffix(hours, "h") + " " + formatWithSuffix(minutes, "m")
		}
		return formatWithSuffix(hours, "h")
	}
	return formatWithSuffix(minutes, "m")
}

// ChannelDisplay names the channel, marking sub-stream rows
func (r Row) ChannelDisplay() string {
	if r.Stream == models.SubStream {
		return r.Channel + " (sub)"
	}
	return r.Channel
}

// ReservationDisplay returns the reservation column value, "-" without one
func (r Row) ReservationDisplay() string {
	if r.Reservation == nil || r.Reservation.Status == models.ReservationNone {
		return "-"
	}
	s := r.Reservation.Status.String()
	if r.Reservation.Availability != models.AvailabilityFull {
		s += "/" + r.Reservation.Availability.String()
	}
	return s
}

func formatWithSuffix(value int64, suffix string) string {
	return strconv.FormatInt(value, 10) + suffix
}
