package layout

import (
	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

type splitKey struct {
	programID string
	role      models.StreamRole
}

// SplitCache memoizes overlap-split decisions for one snapshot. It is owned
// by a grid instance and forgets everything when a new snapshot arrives.
type SplitCache struct {
	version   uint64
	decisions map[splitKey]bool
}

// NewSplitCache returns an empty cache
func NewSplitCache() *SplitCache {
	return &SplitCache{decisions: make(map[splitKey]bool)}
}

// Reset drops every memoized decision
func (c *SplitCache) Reset() {
	c.decisions = make(map[splitKey]bool)
	c.version = 0
}

// Len returns the number of memoized decisions
func (c *SplitCache) Len() int {
	return len(c.decisions)
}

// Split reports whether p must render at half width: it does when its
// channel carries a sub stream and p overlaps a program on the other stream.
// A nil cache computes without memoizing.
func (c *SplitCache) Split(snap *schedule.Snapshot, p models.Program) bool {
	if c == nil {
		return overlapsOther(snap, p)
	}
	if snap.Version != c.version {
		c.Reset()
		c.version = snap.Version
	}
	key := splitKey{programID: p.ID, role: p.Stream}
	if split, ok := c.decisions[key]; ok {
		return split
	}
	split := overlapsOther(snap, p)
	c.decisions[key] = split
	return split
}

func overlapsOther(snap *schedule.Snapshot, p models.Program) bool {
	if ch, ok := snap.Channel(p.ChannelID); !ok || !ch.HasSubStream {
		return false
	}
	other := models.SubStream
	if p.Stream == models.SubStream {
		other = models.MainStream
	}
	for _, o := range snap.Programs(p.ChannelID, other) {
		if !o.Start.Before(p.End) {
			// sorted by start, nothing later can overlap
			break
		}
		if p.Overlaps(o) {
			return true
		}
	}
	return false
}
