// Package viewport implements drag-to-scroll with momentum, wheel
// translation and click-after-drag suppression for the schedule grid.
//
// The controller is a plain state machine driven by the host's event loop:
// Idle -> PointerDown -> Dragging -> Momentum -> Idle. It never starts timers
// itself; the host calls Frame once per animation frame while Frame keeps
// returning true.
package viewport

import (
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Phase is the controller state
type Phase int

const (
	Idle Phase = iota
	PointerDown
	Dragging
	Momentum
)

func (p Phase) String() string {
	switch p {
	case PointerDown:
		return "pointer-down"
	case Dragging:
		return "dragging"
	case Momentum:
		return "momentum"
	default:
		return "idle"
	}
}

// ScrollState is the public view of the scroll position
type ScrollState struct {
	X, Y           float64
	ViewportHeight float64
	AtBottom       bool
}

// Sample is one pointer position observation
type Sample struct {
	Pos  Point
	Time time.Time
}

// DragSession exists between a press and its release or cancel
type DragSession struct {
	PointerStart Point
	ScrollStart  Point
	Last         Sample
	Velocity     Point
	HasMoved     bool
}

// Capture routes pointer events to the grid while a drag is active.
// Terminal hosts have nothing to capture and pass nil.
type Capture interface {
	Capture() error
	Release() error
}

// WheelEvent is one wheel or trackpad step. DX is the tilt axis.
type WheelEvent struct {
	DX, DY float64
	// Shift turns a vertical delta into a horizontal scroll
	Shift bool
	Time  time.Time
}

// Controller owns the scroll offset of one grid surface
type Controller struct {
	cfg      Config
	logger   *slog.Logger
	capture  Capture
	onScroll func(ScrollState)
	limiter  *rate.Limiter

	phase         Phase
	scroll        Point
	bounds        Bounds
	bounded       bool
	drag          *DragSession
	velocity      Point
	suppressClick bool
	captured      bool
	closed        bool
}

// Option configures a Controller
type Option func(*Controller)

// WithCapture sets the pointer capture hook
func WithCapture(c Capture) Option {
	return func(v *Controller) {
		v.capture = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(v *Controller) {
		v.logger = logger
	}
}

// WithOnScroll registers the throttled scroll-change callback
func WithOnScroll(fn func(ScrollState)) Option {
	return func(v *Controller) {
		v.onScroll = fn
	}
}

// New creates an idle controller at offset 0,0
func New(cfg Config, opts ...Option) *Controller {
	cfg = cfg.normalize()
	v := &Controller{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}

	limit := rate.Inf
	if cfg.ScrollThrottle > 0 {
		limit = rate.Every(cfg.ScrollThrottle)
	}
	v.limiter = rate.NewLimiter(limit, 1)

	return v
}

// Config returns the effective tunables
func (v *Controller) Config() Config {
	return v.cfg
}

// PointerDown starts a press. Momentum in progress stops immediately.
// Capture is deferred until the press turns into a drag so plain clicks on
// interactive children keep working.
func (v *Controller) PointerDown(pos Point, t time.Time) {
	if v.closed {
		return
	}
	v.stopMomentum()
	v.phase = PointerDown
	v.drag = &DragSession{
		PointerStart: pos,
		ScrollStart:  v.scroll,
		Last:         Sample{Pos: pos, Time: t},
	}
}

// PointerMove feeds a pointer position. It returns true when the scroll
// offset changed.
func (v *Controller) PointerMove(pos Point, t time.Time) bool {
	if v.closed || v.drag == nil {
		return false
	}

	displacement := pos.Sub(v.drag.PointerStart)
	if v.phase == PointerDown {
		if displacement.Len() <= v.cfg.DragThreshold {
			v.drag.Last = Sample{Pos: pos, Time: t}
			return false
		}
		v.phase = Dragging
		v.drag.HasMoved = true
		v.acquire()
		v.logger.Debug("drag started", "start", v.drag.PointerStart)
	}

	if elapsed := t.Sub(v.drag.Last.Time); elapsed > 0 {
		frames := float64(elapsed) / float64(v.cfg.FrameInterval)
		v.drag.Velocity = pos.Sub(v.drag.Last.Pos).Scale(1 / frames)
	}
	v.drag.Last = Sample{Pos: pos, Time: t}

	return v.setScroll(v.drag.ScrollStart.Sub(displacement), t)
}

// PointerUp ends a press. It returns true when a momentum phase started.
// A press that never became a drag ends without side effects so the click
// it produces proceeds normally.
func (v *Controller) PointerUp(t time.Time) bool {
	if v.closed || v.drag == nil {
		return false
	}
	drag := v.drag
	v.drag = nil

	if v.phase != Dragging {
		v.phase = Idle
		return false
	}

	v.release()
	v.suppressClick = true

	// content moves opposite to the pointer; a pointer that rested before
	// the release loses velocity as if momentum had already been running
	v.velocity = drag.Velocity.Scale(-1)
	if rest := t.Sub(drag.Last.Time) - v.cfg.FrameInterval; rest > 0 {
		v.velocity = v.velocity.Scale(math.Pow(v.cfg.Friction, float64(rest)/float64(v.cfg.FrameInterval)))
	}
	if v.velocity.Len() < v.cfg.StopVelocity {
		v.velocity = Point{}
		v.phase = Idle
		v.flush()
		return false
	}
	v.phase = Momentum
	v.logger.Debug("momentum started", "velocity", v.velocity)
	return true
}

// PointerCancel abandons a press or drag without momentum
func (v *Controller) PointerCancel() {
	if v.closed || v.drag == nil {
		return
	}
	if v.phase == Dragging {
		v.release()
	}
	v.drag = nil
	v.phase = Idle
}

// Wheel scrolls by a wheel delta. Tilt deltas and shifted vertical deltas
// scroll horizontally. Momentum in progress stops immediately.
func (v *Controller) Wheel(e WheelEvent) bool {
	if v.closed {
		return false
	}
	v.stopMomentum()

	var delta Point
	switch {
	case e.DX != 0:
		delta.X = e.DX
	case e.Shift:
		delta.X = e.DY
	default:
		delta.Y = e.DY
	}
	return v.setScroll(v.scroll.Add(delta), e.Time)
}

// Frame advances momentum by one animation frame and reports whether
// another frame is needed
func (v *Controller) Frame(t time.Time) bool {
	if v.closed || v.phase != Momentum {
		return false
	}

	v.velocity = v.velocity.Scale(v.cfg.Friction)
	before := v.scroll
	v.setScroll(v.scroll.Add(v.velocity), t)

	// hitting an edge kills the velocity on that axis
	if v.scroll.X == before.X {
		v.velocity.X = 0
	}
	if v.scroll.Y == before.Y {
		v.velocity.Y = 0
	}

	if v.velocity.Len() < v.cfg.StopVelocity {
		v.velocity = Point{}
		v.phase = Idle
		v.flush()
		return false
	}
	return true
}

// ConsumeClick reports whether the click being delivered must be
// suppressed. The flag is cleared on read so exactly one click is eaten.
func (v *Controller) ConsumeClick() bool {
	if v.closed {
		return false
	}
	s := v.suppressClick
	v.suppressClick = false
	return s
}

// ScrollTo jumps to an offset, stopping momentum
func (v *Controller) ScrollTo(p Point, t time.Time) bool {
	if v.closed {
		return false
	}
	v.stopMomentum()
	return v.setScroll(p, t)
}

// ScrollBy moves the offset by d, stopping momentum
func (v *Controller) ScrollBy(d Point, t time.Time) bool {
	if v.closed {
		return false
	}
	return v.ScrollTo(v.scroll.Add(d), t)
}

// SetBounds updates the content and viewport size and re-clamps the offset
func (v *Controller) SetBounds(b Bounds) {
	if v.closed {
		return
	}
	v.bounds = b
	v.bounded = true
	v.scroll = v.clamp(v.scroll)
}

// Close tears the controller down. Every later call is a no-op.
func (v *Controller) Close() {
	if v.closed {
		return
	}
	if v.phase == Dragging {
		v.release()
	}
	v.drag = nil
	v.velocity = Point{}
	v.phase = Idle
	v.closed = true
}

// Closed reports whether Close was called
func (v *Controller) Closed() bool {
	return v.closed
}

// Phase returns the current state
func (v *Controller) Phase() Phase {
	return v.phase
}

// Offset returns the scroll offset
func (v *Controller) Offset() Point {
	return v.scroll
}

// Velocity returns the momentum velocity in units per frame
func (v *Controller) Velocity() Point {
	return v.velocity
}

// Drag returns a copy of the active drag session
func (v *Controller) Drag() (DragSession, bool) {
	if v.drag == nil {
		return DragSession{}, false
	}
	return *v.drag, true
}

// State returns the scroll state
func (v *Controller) State() ScrollState {
	s := ScrollState{
		X:              v.scroll.X,
		Y:              v.scroll.Y,
		ViewportHeight: v.bounds.ViewportHeight,
	}
	if v.bounded {
		s.AtBottom = v.scroll.Y >= v.bounds.Max().Y-0.5
	}
	return s
}

func (v *Controller) stopMomentum() {
	if v.phase == Momentum {
		v.logger.Debug("momentum cancelled")
		v.phase = Idle
	}
	v.velocity = Point{}
}

func (v *Controller) clamp(p Point) Point {
	if !v.bounded {
		return Point{X: math.Max(0, p.X), Y: math.Max(0, p.Y)}
	}
	m := v.bounds.Max()
	return Point{X: clamp(p.X, 0, m.X), Y: clamp(p.Y, 0, m.Y)}
}

func (v *Controller) setScroll(p Point, t time.Time) bool {
	p = v.clamp(p)
	if p == v.scroll {
		return false
	}
	v.scroll = p
	v.notify(t)
	return true
}

// notify emits a scroll change if the throttle allows it at event time t
func (v *Controller) notify(t time.Time) {
	if v.onScroll == nil {
		return
	}
	if !v.limiter.AllowN(t, 1) {
		return
	}
	v.onScroll(v.State())
}

// flush emits the resting position regardless of the throttle
func (v *Controller) flush() {
	if v.onScroll != nil {
		v.onScroll(v.State())
	}
}

func (v *Controller) acquire() {
	if v.capture == nil {
		return
	}
	if err := v.capture.Capture(); err != nil {
		v.logger.Debug("pointer capture failed", "error", err)
		return
	}
	v.captured = true
}

// release ignores errors: capture may already be gone after a cancel
func (v *Controller) release() {
	if v.capture == nil || !v.captured {
		return
	}
	v.captured = false
	if err := v.capture.Release(); err != nil {
		v.logger.Debug("pointer release failed", "error", err)
	}
}
