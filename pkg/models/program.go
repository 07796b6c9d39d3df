package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInterval is returned when a program does not start before it ends
var ErrInvalidInterval = errors.New("program start must be before end")

// StreamRole identifies which stream of a channel a program airs on
type StreamRole int

const (
	MainStream StreamRole = iota
	SubStream
)

func (r StreamRole) String() string {
	if r == SubStream {
		return "sub"
	}
	return "main"
}

// ReservationStatus is the recording state reported by the scheduler backend
type ReservationStatus int

const (
	ReservationNone ReservationStatus = iota
	ReservationEnabled
	ReservationDisabled
	ReservationRecording
)

var reservationStatusNames = []string{"none", "enabled", "disabled", "recording"}

func (s ReservationStatus) String() string {
	if int(s) < 0 || int(s) >= len(reservationStatusNames) {
		return "none"
	}
	return reservationStatusNames[s]
}

// ParseReservationStatus converts a status name back to its value
func ParseReservationStatus(s string) (ReservationStatus, error) {
	for i, name := range reservationStatusNames {
		if strings.EqualFold(s, name) {
			return ReservationStatus(i), nil
		}
	}
	return ReservationNone, fmt.Errorf("unknown reservation status %q", s)
}

func (s ReservationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ReservationStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseReservationStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Availability tells whether the whole program can be recorded
type Availability int

const (
	AvailabilityFull Availability = iota
	AvailabilityPartial
	AvailabilityUnavailable
)

var availabilityNames = []string{"full", "partial", "unavailable"}

func (a Availability) String() string {
	if int(a) < 0 || int(a) >= len(availabilityNames) {
		return "full"
	}
	return availabilityNames[a]
}

// ParseAvailability converts an availability name back to its value
func ParseAvailability(s string) (Availability, error) {
	for i, name := range availabilityNames {
		if strings.EqualFold(s, name) {
			return Availability(i), nil
		}
	}
	return AvailabilityFull, fmt.Errorf("unknown availability %q", s)
}

func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Availability) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseAvailability(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Reservation is the recording reservation attached to a program.
// A nil reservation means the scheduler knows nothing about the program.
type Reservation struct {
	Status       ReservationStatus `json:"status"`
	Availability Availability      `json:"availability"`
}

// Program is a single airing on one stream of a channel
type Program struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channelId"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Stream      StreamRole   `json:"-"`
	Title       string       `json:"title"`
	Genre       string       `json:"genre,omitempty"`
	Description string       `json:"description,omitempty"`
	Reservation *Reservation `json:"reservation"`
}

// Duration returns the airing length
func (p Program) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Validate checks the start < end invariant
func (p Program) Validate() error {
	if !p.Start.Before(p.End) {
		return fmt.Errorf("program %s: %w", p.ID, ErrInvalidInterval)
	}
	return nil
}

// Overlaps reports whether the two programs share any instant
func (p Program) Overlaps(other Program) bool {
	return other.Start.Before(p.End) && other.End.After(p.Start)
}
