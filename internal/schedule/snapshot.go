package schedule

import (
	"io"
	"log/slog"
	"sort"

	"github.com/chris/tvgrid/pkg/models"
)

// Snapshot is one fetched window of schedule data. It is never modified after
// construction; a new fetch produces a new Snapshot with a higher Version, so
// consumers can compare snapshots by pointer or Version instead of contents.
type Snapshot struct {
	Version   uint64
	Window    models.Window
	Channels  []models.Channel
	DateRange models.DateRange

	main     map[string][]models.Program
	sub      map[string][]models.Program
	index    map[string]models.Program
	channels map[string]models.Channel
}

// NewSnapshot builds a snapshot outside of a Store fetch, for consumers that
// already hold a response
func NewSnapshot(version uint64, window models.Window, resp *models.ScheduleResponse) *Snapshot {
	if resp == nil {
		resp = &models.ScheduleResponse{}
	}
	return newSnapshot(version, window, resp, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newSnapshot copies the collaborator response into an immutable snapshot.
// Programs violating start < end are dropped.
func newSnapshot(version uint64, window models.Window, resp *models.ScheduleResponse, logger *slog.Logger) *Snapshot {
	snap := &Snapshot{
		Version:   version,
		Window:    window,
		DateRange: resp.DateRange,
		main:      make(map[string][]models.Program),
		sub:       make(map[string][]models.Program),
		index:     make(map[string]models.Program),
		channels:  make(map[string]models.Channel),
	}

	for _, cs := range resp.Channels {
		snap.Channels = append(snap.Channels, cs.Channel)
		snap.channels[cs.Channel.ID] = cs.Channel
		snap.main[cs.Channel.ID] = snap.collect(cs.Channel.ID, cs.Programs, models.MainStream, logger)
		if len(cs.SubchannelPrograms) > 0 {
			snap.sub[cs.Channel.ID] = snap.collect(cs.Channel.ID, cs.SubchannelPrograms, models.SubStream, logger)
		}
	}

	sort.SliceStable(snap.Channels, func(i, j int) bool {
		return snap.Channels[i].Ordering < snap.Channels[j].Ordering
	})

	return snap
}

func (s *Snapshot) collect(channelID string, programs []models.Program, role models.StreamRole, logger *slog.Logger) []models.Program {
	out := make([]models.Program, 0, len(programs))
	for _, p := range programs {
		if err := p.Validate(); err != nil {
			logger.Warn("dropping program", "channel", channelID, "error", err)
			continue
		}
		p.ChannelID = channelID
		p.Stream = role
		out = append(out, p)
		s.index[p.ID] = p
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Programs returns the programs of one stream of a channel, ordered by start
func (s *Snapshot) Programs(channelID string, role models.StreamRole) []models.Program {
	if s == nil {
		return nil
	}
	if role == models.SubStream {
		return s.sub[channelID]
	}
	return s.main[channelID]
}

// Channel looks a channel up by id
func (s *Snapshot) Channel(id string) (models.Channel, bool) {
	if s == nil {
		return models.Channel{}, false
	}
	ch, ok := s.channels[id]
	return ch, ok
}

// Program looks a program up by id
func (s *Snapshot) Program(id string) (models.Program, bool) {
	if s == nil {
		return models.Program{}, false
	}
	p, ok := s.index[id]
	return p, ok
}

// ProgramCount returns the number of programs across all channels and streams
func (s *Snapshot) ProgramCount() int {
	if s == nil {
		return 0
	}
	return len(s.index)
}
