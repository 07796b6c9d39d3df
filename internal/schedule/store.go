//go:generate mockgen -destination=mocks/fetcher.go -package=mocks github.com/chris/tvgrid/internal/schedule Fetcher

// Package schedule holds the currently fetched schedule window and drives
// page navigation between broadcast days.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/tvgrid/internal/broadcast"
	"github.com/chris/tvgrid/pkg/models"
)

// ErrNoFetcher is returned when a Store is used without a collaborator
var ErrNoFetcher = errors.New("schedule: no fetcher configured")

// Fetcher is the schedule-fetch collaborator
type Fetcher interface {
	Fetch(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error)
}

// PageCursor tracks the selected broadcast date and the selectable range.
// DisplayOffset is 0 or 1 and says which day of an extended window is in view.
type PageCursor struct {
	SelectedDate  time.Time
	Earliest      time.Time
	Latest        time.Time
	DisplayOffset int
}

// Page is a navigation target
type Page struct {
	Date     time.Time
	Extended bool
}

// Store owns the fetched snapshot, the page cursor and the in-flight flag
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
	filter  models.ChannelFilter

	mu         sync.Mutex
	snapshot   *Snapshot
	cursor     PageCursor
	extended   bool
	inFlight   bool
	generation uint64
	version    uint64
}

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithNow sets the clock (for testing)
func WithNow(fn func() time.Time) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFilter sets the channel filter sent with every request
func WithFilter(filter models.ChannelFilter) Option {
	return func(s *Store) {
		s.filter = filter
	}
}

// New creates a Store positioned on today's broadcast day
func New(fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.now()
	s.cursor.SelectedDate = broadcast.TodayStart(now)
	s.extended = broadcast.IsExtendedEligible(s.cursor.SelectedDate, now)

	return s
}

// Fetch requests the window for date and, on success, replaces the snapshot,
// cursor and selectable range in one step. It returns false with a nil error
// when the call was ignored because another request is in flight, or when
// the result arrived after Cancel superseded it. On failure the previous
// snapshot stays in place.
func (s *Store) Fetch(ctx context.Context, date time.Time, extended bool) (bool, error) {
	if s.fetcher == nil {
		return false, ErrNoFetcher
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("fetch ignored, request in flight", "date", date)
		return false, nil
	}
	s.inFlight = true
	s.generation++
	gen := s.generation
	filter := s.filter
	s.mu.Unlock()

	window := broadcast.DisplayWindow(date, extended)
	s.logger.Debug("fetching schedule", "start", window.Start, "end", window.End, "extended", extended)

	resp, err := s.fetcher.Fetch(ctx, models.ScheduleRequest{
		Start:  window.Start,
		End:    window.End,
		Filter: filter,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("discarding superseded schedule result", "start", window.Start)
		return false, nil
	}
	s.inFlight = false

	if err != nil {
		s.logger.Warn("schedule fetch failed", "start", window.Start, "error", err)
		return false, fmt.Errorf("fetch schedule for %s: %w", date.Format("2006-01-02"), err)
	}
	if resp == nil {
		resp = &models.ScheduleResponse{}
	}

	s.version++
	s.snapshot = newSnapshot(s.version, window, resp, s.logger)
	s.extended = extended
	s.cursor = PageCursor{
		SelectedDate: date,
		Earliest:     resp.DateRange.Earliest,
		Latest:       resp.DateRange.Latest,
	}

	s.logger.Info("schedule loaded",
		"date", date.Format("2006-01-02"),
		"extended", extended,
		"channels", len(s.snapshot.Channels),
		"programs", s.snapshot.ProgramCount())

	return true, nil
}

// Cancel supersedes any in-flight request; its result is discarded when it lands
func (s *Store) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.generation++
		s.inFlight = false
	}
}

// PreviousPage computes the target of a backward page step.
// The day absorbed into today's extended window is skipped.
func (s *Store) PreviousPage() (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := broadcast.AddDays(s.cursor.SelectedDate, -1)
	return s.resolve(target)
}

// NextPage computes the target of a forward page step. Paging forward from
// an extended window skips the day it already shows.
func (s *Store) NextPage() (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := 1
	if s.extended {
		step = 2
	}
	target := broadcast.AddDays(s.cursor.SelectedDate, step)
	return s.resolve(target)
}

// resolve applies the page-merge rule and the selectable-range clamp.
// Must be called with mu held.
func (s *Store) resolve(target time.Time) (Page, bool) {
	now := s.now()
	today := broadcast.TodayStart(now)
	if broadcast.SameDay(target, broadcast.AddDays(today, 1)) && broadcast.IsExtendedEligible(today, now) {
		target = today
	}

	if !s.inRange(target) {
		return Page{}, false
	}

	return Page{
		Date:     target,
		Extended: broadcast.IsExtendedEligible(target, now),
	}, true
}

// inRange compares at day granularity. Earliest is an inclusive instant and
// Latest an exclusive end, so a Latest sitting on a boundary closes the day
// before it. An unknown range allows everything.
func (s *Store) inRange(target time.Time) bool {
	if !s.cursor.Earliest.IsZero() {
		earliest := broadcast.TodayStart(s.cursor.Earliest.In(target.Location()))
		if broadcast.Before(target, earliest) {
			return false
		}
	}
	if !s.cursor.Latest.IsZero() {
		latest := broadcast.DateOf(s.cursor.Latest.In(target.Location()))
		if broadcast.Before(latest, target) {
			return false
		}
	}
	return true
}

// PreviousDay pages backward. Out-of-range targets are a silent no-op.
func (s *Store) PreviousDay(ctx context.Context) (bool, error) {
	page, ok := s.PreviousPage()
	if !ok {
		return false, nil
	}
	return s.Fetch(ctx, page.Date, page.Extended)
}

// NextDay pages forward. Out-of-range targets are a silent no-op.
func (s *Store) NextDay(ctx context.Context) (bool, error) {
	page, ok := s.NextPage()
	if !ok {
		return false, nil
	}
	return s.Fetch(ctx, page.Date, page.Extended)
}

// JumpToNow loads today's broadcast day, extended when eligible
func (s *Store) JumpToNow(ctx context.Context) (bool, error) {
	now := s.now()
	today := broadcast.TodayStart(now)
	return s.Fetch(ctx, today, broadcast.IsExtendedEligible(today, now))
}

// Reload fetches the current date again, re-evaluating extended eligibility
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	date := s.cursor.SelectedDate
	s.mu.Unlock()
	return s.Fetch(ctx, date, broadcast.IsExtendedEligible(date, s.now()))
}

// NeedsWiden reports whether the clock has moved the current page into
// extended eligibility (or out of it) since it was fetched
func (s *Store) NeedsWiden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return false
	}
	return broadcast.IsExtendedEligible(s.cursor.SelectedDate, s.now()) != s.extended
}

// SetDisplayOffset records which day of an extended window is scrolled into view
func (s *Store) SetDisplayOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.extended || offset < 0 {
		offset = 0
	}
	if offset > 1 {
		offset = 1
	}
	s.cursor.DisplayOffset = offset
}

// Cursor returns a copy of the page cursor
func (s *Store) Cursor() PageCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Snapshot returns the current snapshot, nil before the first successful fetch
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Extended reports whether the current page is an extended window
func (s *Store) Extended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extended
}

// Loading reports whether a request is in flight
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Window returns the window of the current page
func (s *Store) Window() models.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot.Window
	}
	return broadcast.DisplayWindow(s.cursor.SelectedDate, s.extended)
}

// SetFilter replaces the channel filter used by subsequent fetches
func (s *Store) SetFilter(filter models.ChannelFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}
