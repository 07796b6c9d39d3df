package viewport

import "time"

// Default tuning values
const (
	DefaultDragThreshold  = 5.0
	DefaultFriction       = 0.95
	DefaultStopVelocity   = 0.5
	DefaultFrameInterval  = 16 * time.Millisecond
	DefaultScrollThrottle = 50 * time.Millisecond
)

// Config holds the interaction tunables
type Config struct {
	// DragThreshold is the displacement a press must exceed before it becomes a drag
	DragThreshold float64
	// Friction multiplies the momentum velocity once per frame, must be in (0, 1)
	Friction float64
	// StopVelocity ends the momentum phase once speed drops below it
	StopVelocity float64
	// FrameInterval is the animation frame length velocities are normalized to
	FrameInterval time.Duration
	// ScrollThrottle is the minimum interval between scroll notifications
	ScrollThrottle time.Duration
}

// DefaultConfig returns the default tunables
func DefaultConfig() Config {
	return Config{
		DragThreshold:  DefaultDragThreshold,
		Friction:       DefaultFriction,
		StopVelocity:   DefaultStopVelocity,
		FrameInterval:  DefaultFrameInterval,
		ScrollThrottle: DefaultScrollThrottle,
	}
}

// normalize replaces unusable values with defaults
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.DragThreshold < 0 {
		c.DragThreshold = d.DragThreshold
	}
	if c.Friction <= 0 || c.Friction >= 1 {
		c.Friction = d.Friction
	}
	if c.StopVelocity <= 0 {
		c.StopVelocity = d.StopVelocity
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.ScrollThrottle < 0 {
		c.ScrollThrottle = 0
	}
	return c
}
