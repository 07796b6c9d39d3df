// Package remote fetches schedules from a tvgrid schedule server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/chris/tvgrid/pkg/models"
)

const (
	// RequestIDHeader carries a per-request id the server echoes into its logs
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 8 * 1024 * 1024

	defaultAttempts    = 3
	defaultDelay       = 200 * time.Millisecond
	defaultBatchSize   = 20
	defaultConcurrency = 4
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("schedule server returned status %d", e.Code)
	}
	return fmt.Sprintf("schedule server returned status %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying can help
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client implements the schedule fetcher against a remote server
type Client struct {
	baseURL     string
	http        *http.Client
	logger      *slog.Logger
	attempts    uint
	delay       time.Duration
	batchSize   int
	concurrency int
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithRetry sets the number of attempts per request and the base delay between them
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		cl.delay = delay
	}
}

// WithBatchSize splits explicit channel id lists into batches of n fetched concurrently
func WithBatchSize(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.batchSize = n
		}
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		attempts:    defaultAttempts,
		delay:       defaultDelay,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch requests the schedule window. Explicit channel id lists longer than
// the batch size are fetched as concurrent batches and merged.
func (c *Client) Fetch(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	ids := req.Filter.ChannelIDs
	if len(ids) <= c.batchSize {
		return c.fetchWithRetry(ctx, req)
	}

	p := pool.NewWithResults[*models.ScheduleResponse]().
		WithContext(ctx).
		WithMaxGoroutines(c.concurrency).
		WithCancelOnError()

	for start := 0; start < len(ids); start += c.batchSize {
		end := min(start+c.batchSize, len(ids))
		batch := req
		batch.Filter = models.ChannelFilter{ChannelIDs: ids[start:end]}
		p.Go(func(ctx context.Context) (*models.ScheduleResponse, error) {
			return c.fetchWithRetry(ctx, batch)
		})
	}

	parts, err := p.Wait()
	if err != nil {
		return nil, err
	}
	return merge(parts), nil
}

// merge joins batch responses; channel order follows Ordering and the date
// range is the union of the parts
func merge(parts []*models.ScheduleResponse) *models.ScheduleResponse {
	out := &models.ScheduleResponse{}
	for _, part := range parts {
		if part == nil {
			continue
		}
		out.Channels = append(out.Channels, part.Channels...)
		dr := part.DateRange
		if !dr.Earliest.IsZero() && (out.DateRange.Earliest.IsZero() || dr.Earliest.Before(out.DateRange.Earliest)) {
			out.DateRange.Earliest = dr.Earliest
		}
		if dr.Latest.After(out.DateRange.Latest) {
			out.DateRange.Latest = dr.Latest
		}
	}
	sort.SliceStable(out.Channels, func(i, j int) bool {
		a, b := out.Channels[i].Channel, out.Channels[j].Channel
		if a.Ordering != b.Ordering {
			return a.Ordering < b.Ordering
		}
		return a.ID < b.ID
	})
	return out
}

func (c *Client) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying schedule request", "attempt", n+1, "error", err)
		}),
	}
}

// retryable retries transport failures and temporary statuses
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode schedule response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) fetchWithRetry(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	resp, err := retry.DoWithData(func() (*models.ScheduleResponse, error) {
		return c.fetchOnce(ctx, req)
	}, c.retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	return resp, nil
}

func scheduleQuery(req models.ScheduleRequest) url.Values {
	q := url.Values{}
	q.Set("start", req.Start.Format(time.RFC3339))
	q.Set("end", req.End.Format(time.RFC3339))
	if req.Filter.Group != "" {
		q.Set("group", req.Filter.Group)
	}
	for _, id := range req.Filter.ChannelIDs {
		q.Add("channel", id)
	}
	return q
}

func (c *Client) fetchOnce(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	endpoint := c.baseURL + "/api/schedule?" + scheduleQuery(req).Encode()
	var out models.ScheduleResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reserve asks the server to record the reservation state of a program
func (c *Client) Reserve(ctx context.Context, programID string, r models.Reservation) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reservation: %w", err)
	}
	endpoint := c.baseURL + "/api/programs/" + url.PathEscape(programID) + "/reserve"
	err = retry.Do(func() error {
		return c.do(ctx, http.MethodPost, endpoint, body, nil)
	}, c.retryOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", programID, err)
	}
	return nil
}

// Health checks that the server answers
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.baseURL+"/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("schedule server response",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}
