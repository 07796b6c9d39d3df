package guide

import (
	"sort"

	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

// RowsFromSnapshot flattens the snapshot into rows ordered by channel
// ordering, then stream, then start. A program crossing a window edge keeps
// its full times.
func RowsFromSnapshot(snap *schedule.Snapshot) []Row {
	if snap == nil {
		return nil
	}

	var rows []Row
	for _, ch := range snap.Channels {
		for _, role := range []models.StreamRole{models.MainStream, models.SubStream} {
			for _, p := range snap.Programs(ch.ID, role) {
				if !overlapsWindow(p, snap.Window) {
					continue
				}
				rows = append(rows, Row{
					Channel:     channelName(ch),
					Stream:      role,
					Start:       p.Start,
					End:         p.End,
					Title:       p.Title,
					Genre:       p.Genre,
					Reservation: p.Reservation,
				})
			}
		}
	}
	return rows
}

func channelName(ch models.Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	return ch.ID
}

func overlapsWindow(p models.Program, w models.Window) bool {
	return p.Start.Before(w.End) && p.End.After(w.Start)
}

// ReservationCount is how many rows carry one reservation status
type ReservationCount struct {
	Status models.ReservationStatus
	Count  int
}

// CountReservations groups rows by reservation status, most frequent first.
// Rows without a reservation are not counted.
func CountReservations(rows []Row) []ReservationCount {
	counts := make(map[models.ReservationStatus]int)
	for _, r := range rows {
		if r.Reservation == nil || r.Reservation.Status == models.ReservationNone {
			continue
		}
		counts[r.Reservation.Status]++
	}

	result := make([]ReservationCount, 0, len(counts))
	for status, n := range counts {
		result = append(result, ReservationCount{Status: status, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Status < result[j].Status
	})
	return result
}
