package tui

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/internal/cell"
	"github.com/chris/tvgrid/internal/config"
	"github.com/chris/tvgrid/internal/layout"
	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/internal/timescale"
	"github.com/chris/tvgrid/internal/viewport"
	"github.com/chris/tvgrid/pkg/models"
)

// ViewState represents which view is currently displayed
type ViewState int

const (
	GridView ViewState = iota
	DetailView
	HelpView
)

// navigation identifies what started a schedule load
type navigation int

const (
	navNow navigation = iota
	navPrevious
	navNext
	navReload
)

// Rows and columns around the scrollable grid
const (
	headerRows = 2
	footerRows = 1
	scaleWidth = 10
	wheelStep  = 3
)

// Intents are the callbacks the grid raises towards its host. Every field
// is optional.
type Intents struct {
	OnSelect       func(programID string)
	OnDeselect     func()
	OnShowDetail   func(programID string)
	OnQuickReserve func(programID string)
	OnScroll       func(state viewport.ScrollState)
	OnVisibleSlot  func(slot time.Time, displayOffset int)
	OnNavigate     func(cursor schedule.PageCursor)
}

// Reserver changes the reservation of a program in the collaborator
type Reserver func(ctx context.Context, programID string, r models.Reservation) error

type scheduleLoadedMsg struct {
	nav   navigation
	epoch int
	ok    bool
	err   error
}

type frameMsg struct {
	epoch int
	t     time.Time
}

type clockMsg struct {
	epoch int
	t     time.Time
}

type reservedMsg struct {
	programID   string
	reservation models.Reservation
	err         error
}

// Model is the bubbletea host of the schedule grid
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Collaborators
	store    *schedule.Store
	reserver Reserver
	intents  Intents
	logger   *slog.Logger

	// Geometry, recomputed only when the snapshot changes
	engine   layout.Engine
	cache    *layout.SplitCache
	snap     *schedule.Snapshot
	rects    []layout.Rect
	order    []layout.Rect
	vp       *viewport.Controller
	display  config.Display
	minSlice float64

	// View state
	selection cell.SelectionState
	viewState ViewState
	keys      keyMap
	spinner   spinner.Model
	status    string

	// Loops whose epoch no longer matches stop re-arming
	frameEpoch int
	clockEpoch int

	// UI dimensions
	width  int
	height int

	focused bool
	closed  bool
	loading bool

	// For testing - allows injecting "now"
	now func() time.Time
}

// Option is a functional option for configuring the Model
type Option func(*Model)

// WithNow sets the function used to get the current time (for testing)
func WithNow(fn func() time.Time) Option {
	return func(m *Model) {
		m.now = fn
	}
}

// WithLogger sets the logger. The terminal belongs to the UI, so callers
// pass a file-backed logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithIntents registers the host callbacks
func WithIntents(intents Intents) Option {
	return func(m *Model) {
		m.intents = intents
	}
}

// WithReserver enables quick reservation
func WithReserver(r Reserver) Option {
	return func(m *Model) {
		m.reserver = r
	}
}

// WithContext sets the parent context of fetches and reservations
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// New creates a new Model driving store with the preferences in cfg
func New(store *schedule.Store, cfg *config.Config, opts ...Option) *Model {
	if cfg == nil {
		cfg = config.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		ctx:    context.Background(),
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		engine: layout.Engine{
			HourHeight:   float64(cfg.Display.HourHeight),
			MinHeight:    cfg.Grid.MinCellHeight,
			ChannelWidth: float64(cfg.Display.ChannelWidth),
		},
		cache:     layout.NewSplitCache(),
		display:   cfg.Display,
		minSlice:  cfg.Grid.MinVisibleSlice,
		selection: cell.SelectionState{HoverExpand: cfg.Display.HoverExpand},
		keys:      defaultKeyMap(),
		spinner:   sp,
		focused:   true,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.ctx, m.cancel = context.WithCancel(m.ctx)
	m.vp = viewport.New(cfg.Grid.Viewport(),
		viewport.WithLogger(m.logger),
		viewport.WithOnScroll(m.handleScroll))

	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.load(navNow)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncBounds()
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, nil

	case spinner.TickMsg:
		if m.closed || !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scheduleLoadedMsg:
		return m, m.handleLoaded(msg)

	case frameMsg:
		if m.closed || msg.epoch != m.frameEpoch {
			return m, nil
		}
		if m.vp.Frame(msg.t) {
			return m, m.nextFrame()
		}
		return m, nil

	case clockMsg:
		if m.closed || msg.epoch != m.clockEpoch {
			return m, nil
		}
		if m.store.NeedsWiden() {
			m.logger.Info("window eligibility changed, reloading")
			return m, m.load(navReload)
		}
		return m, m.tickClock()

	case reservedMsg:
		return m, m.handleReserved(msg)
	}

	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	return m.renderView()
}

// Selected returns the selected program id
func (m *Model) Selected() string {
	return m.selection.Selected
}

// ViewState returns the current view
func (m *Model) ViewState() ViewState {
	return m.viewState
}

// Offset returns the scroll offset of the grid
func (m *Model) Offset() viewport.Point {
	return m.vp.Offset()
}

// Status returns the last status line message
func (m *Model) Status() string {
	return m.status
}

// Closed reports whether the model was torn down
func (m *Model) Closed() bool {
	return m.closed
}

// load starts a schedule fetch as a command. Starting a load bumps both
// loop epochs so stale momentum frames and clock ticks stop re-arming.
func (m *Model) load(nav navigation) tea.Cmd {
	if m.closed || m.loading {
		return nil
	}

	m.loading = true
	m.frameEpoch++
	m.clockEpoch++
	m.vp.ScrollTo(m.vp.Offset(), m.now())

	epoch := m.clockEpoch
	store, ctx := m.store, m.ctx
	fetch := func() tea.Msg {
		var ok bool
		var err error
		switch nav {
		case navPrevious:
			ok, err = store.PreviousDay(ctx)
		case navNext:
			ok, err = store.NextDay(ctx)
		case navReload:
			ok, err = store.Reload(ctx)
		default:
			ok, err = store.JumpToNow(ctx)
		}
		return scheduleLoadedMsg{nav: nav, epoch: epoch, ok: ok, err: err}
	}

	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) handleLoaded(msg scheduleLoadedMsg) tea.Cmd {
	m.loading = false
	if m.closed {
		return nil
	}

	switch {
	case msg.err != nil:
		m.logger.Error("schedule load failed", "error", msg.err)
		m.status = "Load failed: " + msg.err.Error()
	case msg.ok:
		if msg.nav != navReload {
			m.status = ""
		}
		m.refreshLayout()
		m.scrollAfterLoad(msg.nav)
		if msg.nav != navReload && m.intents.OnNavigate != nil {
			m.intents.OnNavigate(m.store.Cursor())
		}
	}

	if msg.epoch != m.clockEpoch {
		return nil
	}
	return m.tickClock()
}

// refreshLayout recomputes the rects when the store holds a new snapshot
func (m *Model) refreshLayout() {
	snap := m.store.Snapshot()
	if snap != m.snap {
		m.snap = snap
		m.rects = m.engine.Layout(snap, m.cache)

		m.order = append([]layout.Rect(nil), m.rects...)
		sort.SliceStable(m.order, func(i, j int) bool {
			a, b := m.order[i], m.order[j]
			if a.ChannelIndex != b.ChannelIndex {
				return a.ChannelIndex < b.ChannelIndex
			}
			if a.Role != b.Role {
				return a.Role < b.Role
			}
			return a.Y < b.Y
		})

		if _, ok := m.program(m.selection.Selected); !ok {
			m.selection.Selected = ""
			if m.viewState == DetailView {
				m.viewState = GridView
			}
		}
		m.selection.Hovered = ""
	}
	m.syncBounds()
}

func (m *Model) scrollAfterLoad(nav navigation) {
	if m.snap == nil || nav == navReload {
		return
	}
	now := m.now()
	x := m.vp.Offset().X
	if nav == navNow {
		if y, ok := timescale.Indicator(m.snap.Window, now, m.engine.HourHeight); ok {
			m.vp.ScrollTo(viewport.Point{X: x, Y: math.Max(0, y-m.engine.HourHeight)}, now)
			return
		}
	}
	m.vp.ScrollTo(viewport.Point{X: x}, now)
}

func (m *Model) syncBounds() {
	w, h := m.gridSize()
	b := viewport.Bounds{ViewportWidth: float64(w), ViewportHeight: float64(h)}
	if m.snap != nil {
		b.ContentWidth = m.engine.TotalWidth(len(m.snap.Channels))
		b.ContentHeight = m.engine.TotalHeight(m.snap.Window)
	}
	m.vp.SetBounds(b)
}

func (m *Model) size() (int, int) {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	return width, height
}

// gridSize returns the visible size of the scrollable area
func (m *Model) gridSize() (int, int) {
	width, height := m.size()
	return max(0, width-scaleWidth), max(0, height-headerRows-footerRows)
}

func (m *Model) tickClock() tea.Cmd {
	epoch := m.clockEpoch
	return tea.Tick(timescale.UntilNextMinute(m.now()), func(t time.Time) tea.Msg {
		return clockMsg{epoch: epoch, t: t}
	})
}

func (m *Model) nextFrame() tea.Cmd {
	epoch := m.frameEpoch
	return tea.Tick(m.vp.Config().FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg{epoch: epoch, t: t}
	})
}

// handleScroll receives the throttled scroll notifications of the viewport
func (m *Model) handleScroll(state viewport.ScrollState) {
	if m.snap == nil {
		return
	}
	slot := timescale.SlotAt(m.snap.Window, state.Y, m.engine.HourHeight)
	offset := broadcast.DayOffsetAt(m.snap.Window, slot)
	m.store.SetDisplayOffset(offset)

	if m.intents.OnScroll != nil {
		m.intents.OnScroll(state)
	}
	if m.intents.OnVisibleSlot != nil {
		m.intents.OnVisibleSlot(slot, offset)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}
	switch m.viewState {
	case DetailView:
		return m.handleDetailKey(msg)
	case HelpView:
		return m.handleHelpKey(msg)
	default:
		return m.handleGridKey(msg)
	}
}

func (m *Model) handleGridKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	_, gridHeight := m.gridSize()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.PrevDay):
		return m, m.load(navPrevious)

	case key.Matches(msg, m.keys.NextDay):
		return m, m.load(navNext)

	case key.Matches(msg, m.keys.Now):
		return m, m.load(navNow)

	case key.Matches(msg, m.keys.Up):
		m.scrollBy(0, -1)

	case key.Matches(msg, m.keys.Down):
		m.scrollBy(0, 1)

	case key.Matches(msg, m.keys.Left):
		m.scrollBy(-m.engine.ChannelWidth, 0)

	case key.Matches(msg, m.keys.Right):
		m.scrollBy(m.engine.ChannelWidth, 0)

	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(0, -float64(gridHeight))

	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(0, float64(gridHeight))

	case key.Matches(msg, m.keys.NextProgram):
		m.cycle(1)

	case key.Matches(msg, m.keys.PrevProgram):
		m.cycle(-1)

	case key.Matches(msg, m.keys.Detail):
		m.showDetail()

	case key.Matches(msg, m.keys.Reserve):
		return m, m.quickReserve()

	case key.Matches(msg, m.keys.Back):
		m.deselect()

	case key.Matches(msg, m.keys.Help):
		m.viewState = HelpView
	}

	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Detail):
		m.viewState = GridView
	case key.Matches(msg, m.keys.Reserve):
		return m, m.quickReserve()
	case key.Matches(msg, m.keys.Help):
		m.viewState = HelpView
	}
	return m, nil
}

func (m *Model) handleHelpKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Help):
		m.viewState = GridView
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (*Model, tea.Cmd) {
	if m.closed || m.viewState != GridView {
		return m, nil
	}

	now := m.now()
	pos := viewport.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown, tea.MouseButtonWheelLeft, tea.MouseButtonWheelRight:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		m.frameEpoch++
		e := viewport.WheelEvent{Shift: msg.Shift, Time: now}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			e.DY = -wheelStep
		case tea.MouseButtonWheelDown:
			e.DY = wheelStep
		case tea.MouseButtonWheelLeft:
			e.DX = -m.engine.ChannelWidth / 2
		case tea.MouseButtonWheelRight:
			e.DX = m.engine.ChannelWidth / 2
		}
		m.vp.Wheel(e)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if _, _, ok := m.toContent(msg.X, msg.Y); !ok {
			return m, nil
		}
		m.frameEpoch++
		m.vp.PointerDown(pos, now)

	case tea.MouseActionMotion:
		if _, pressed := m.vp.Drag(); pressed {
			if msg.Button != tea.MouseButtonNone {
				m.vp.PointerMove(pos, now)
				return m, nil
			}
			// the release happened outside the terminal
			m.vp.PointerCancel()
		}
		m.selection.Hovered, _ = m.programAt(msg.X, msg.Y)

	case tea.MouseActionRelease:
		if _, pressed := m.vp.Drag(); !pressed {
			return m, nil
		}
		var cmd tea.Cmd
		if m.vp.PointerUp(now) {
			cmd = m.nextFrame()
		}
		if !m.vp.ConsumeClick() {
			m.click(msg.X, msg.Y)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) scrollBy(dx, dy float64) {
	m.frameEpoch++
	m.vp.ScrollBy(viewport.Point{X: dx, Y: dy}, m.now())
}

// toContent converts a terminal position to grid content coordinates
func (m *Model) toContent(x, y int) (float64, float64, bool) {
	w, h := m.gridSize()
	gx, gy := x-scaleWidth, y-headerRows
	if gx < 0 || gy < 0 || gx >= w || gy >= h {
		return 0, 0, false
	}
	off := m.vp.Offset()
	return float64(gx) + off.X, float64(gy) + off.Y, true
}

// programAt hit-tests the painted boxes, topmost first
func (m *Model) programAt(x, y int) (string, bool) {
	if _, _, ok := m.toContent(x, y); !ok || m.snap == nil {
		return "", false
	}
	gx, gy := x-scaleWidth, y-headerRows
	off := m.vp.Offset()
	boxes := m.boxes()
	for i := len(boxes) - 1; i >= 0; i-- {
		x0, x1, y0, y1 := screenSpan(boxes[i], off)
		if gx >= x0 && gx < x1 && gy >= y0 && gy < y1 {
			return boxes[i].ProgramID, true
		}
	}
	return "", false
}

func (m *Model) boxes() []cell.Box {
	return cell.Boxes(m.engine, m.rects, m.vp.Offset().Y, m.selection, m.naturalHeight, m.minSlice)
}

// naturalHeight is the expanded height: the program duration or its text,
// whichever is taller
func (m *Model) naturalHeight(programID string) float64 {
	p, ok := m.program(programID)
	if !ok {
		return 0
	}
	lines := contentLines(p, int(m.engine.ChannelWidth)-1, m.display.Clock28)
	return math.Max(m.engine.NaturalHeight(p), float64(len(lines)))
}

func (m *Model) program(id string) (models.Program, bool) {
	if id == "" || m.snap == nil {
		return models.Program{}, false
	}
	return m.snap.Program(id)
}

func (m *Model) click(x, y int) {
	id, ok := m.programAt(x, y)
	switch {
	case !ok:
		m.deselect()
	case id == m.selection.Selected:
		m.showDetail()
	default:
		m.selectProgram(id)
	}
}

func (m *Model) selectProgram(id string) {
	m.selection.Selected = id
	if m.intents.OnSelect != nil {
		m.intents.OnSelect(id)
	}
}

func (m *Model) deselect() {
	if m.selection.Selected == "" {
		return
	}
	m.selection.Selected = ""
	if m.intents.OnDeselect != nil {
		m.intents.OnDeselect()
	}
}

func (m *Model) showDetail() {
	id := m.selection.Selected
	if _, ok := m.program(id); !ok {
		return
	}
	m.viewState = DetailView
	if m.intents.OnShowDetail != nil {
		m.intents.OnShowDetail(id)
	}
}

// cycle moves the selection through programs in channel order and scrolls
// the new selection into view
func (m *Model) cycle(dir int) {
	n := len(m.order)
	if n == 0 {
		return
	}
	next := 0
	if dir < 0 {
		next = n - 1
	}
	for i, r := range m.order {
		if r.ProgramID == m.selection.Selected {
			next = ((i+dir)%n + n) % n
			break
		}
	}
	r := m.order[next]
	m.selectProgram(r.ProgramID)
	m.reveal(r)
}

func (m *Model) reveal(r layout.Rect) {
	w, h := m.gridSize()
	off := m.vp.Offset()
	target := off
	if r.Y < off.Y || r.Y >= off.Y+float64(h) {
		target.Y = r.Y
	}
	if r.X < off.X || r.X+r.Width > off.X+float64(w) {
		target.X = r.X
	}
	if target != off {
		m.frameEpoch++
		m.vp.ScrollTo(target, m.now())
	}
}

func (m *Model) quickReserve() tea.Cmd {
	id := m.selection.Selected
	p, ok := m.program(id)
	if !ok {
		return nil
	}
	if m.intents.OnQuickReserve != nil {
		m.intents.OnQuickReserve(id)
	}
	if m.reserver == nil {
		return nil
	}

	next := toggleReservation(p.Reservation)
	reserver, ctx := m.reserver, m.ctx
	return func() tea.Msg {
		err := reserver(ctx, id, next)
		return reservedMsg{programID: id, reservation: next, err: err}
	}
}

// toggleReservation cancels an active reservation or requests a new one
func toggleReservation(r *models.Reservation) models.Reservation {
	if r != nil && (r.Status == models.ReservationEnabled || r.Status == models.ReservationRecording) {
		return models.Reservation{Status: models.ReservationNone}
	}
	return models.Reservation{Status: models.ReservationEnabled, Availability: models.AvailabilityFull}
}

func (m *Model) handleReserved(msg reservedMsg) tea.Cmd {
	if m.closed {
		return nil
	}
	if msg.err != nil {
		m.logger.Error("reservation failed", "program", msg.programID, "error", msg.err)
		m.status = "Reservation failed: " + msg.err.Error()
		return nil
	}
	m.logger.Info("reservation updated", "program", msg.programID, "status", msg.reservation.Status)
	if msg.reservation.Status == models.ReservationNone {
		m.status = "Reservation cancelled"
	} else {
		m.status = "Reserved"
	}
	return m.load(navReload)
}

// quit tears the grid down: in-flight fetches are superseded, animation
// loops stop re-arming and the viewport ignores further input
func (m *Model) quit() tea.Cmd {
	m.teardown()
	return tea.Quit
}

func (m *Model) teardown() {
	if m.closed {
		return
	}
	m.closed = true
	m.frameEpoch++
	m.clockEpoch++
	m.store.Cancel()
	m.vp.Close()
	m.cancel()
}
