// Package server exposes a schedule source over HTTP for remote grids.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/chris/tvgrid/internal/db"
	"github.com/chris/tvgrid/internal/schedule"
	"github.com/chris/tvgrid/pkg/models"
)

const (
	// RequestIDHeader is accepted from clients and echoed back
	RequestIDHeader = "X-Request-ID"

	maxRequestBody = 64 * 1024
)

// Store is the backend the server publishes
type Store interface {
	schedule.Fetcher
	SetReservation(ctx context.Context, programID string, r models.Reservation) error
}

// Server routes schedule requests to a Store
type Server struct {
	store   Store
	logger  *slog.Logger
	limiter *rate.Limiter
	router  *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit caps API requests per second across all clients
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New builds the router
func New(store Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodGet)
	api.HandleFunc("/programs/{id}/reserve", s.handleReserve).Methods(http.MethodPost)

	s.router = r
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("schedule server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("schedule server stopped")
		return nil
	}
}

type ctxKey struct{}

// RequestID returns the id attached to the request context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", id,
			"elapsed", time.Since(start))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseScheduleRequest reads start, end, group and repeated channel parameters
func parseScheduleRequest(r *http.Request) (models.ScheduleRequest, error) {
	q := r.URL.Query()
	var req models.ScheduleRequest

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		return req, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		return req, fmt.Errorf("invalid end: %w", err)
	}
	if !start.Before(end) {
		return req, errors.New("start must be before end")
	}

	req.Start = start
	req.End = end
	req.Filter = models.ChannelFilter{
		Group:      q.Get("group"),
		ChannelIDs: q["channel"],
	}
	return req, nil
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	req, err := parseScheduleRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.store.Fetch(r.Context(), req)
	if err != nil {
		s.logger.Error("schedule fetch failed", "request_id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	if resp.Channels == nil {
		resp.Channels = []models.ChannelSchedule{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var res models.Reservation
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation: "+err.Error())
		return
	}

	err := s.store.SetReservation(r.Context(), id, res)
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("reservation failed", "program", id, "request_id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store reservation")
		return
	}

	s.logger.Info("reservation updated", "program", id, "status", res.Status.String())
	w.WriteHeader(http.StatusNoContent)
}
