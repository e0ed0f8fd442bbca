// Package backend is the REST client of the fleet management API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodySize    = 10 << 20
)

// Client issues authenticated requests against the backend. The bearer token
// is passed explicitly on every call.
//
// Each endpoint group (a collection path, or the messages of chat threads)
// has its own circuit breaker, so failing per-item lookups never block
// list fetches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	settings   gobreaker.Settings
	breakers   *xsync.MapOf[string, *gobreaker.CircuitBreaker]
	logger     *zap.Logger
}

const messagesBreaker = "messages"

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBreaker overrides the circuit breaker settings used for every endpoint
// group. Name is always the group; IsSuccessful is filled in when empty.
func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Client) { c.settings = st }
}

// New creates a client for baseURL (for example "https://api.example.com/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		breakers:   xsync.NewMapOf[string, *gobreaker.CircuitBreaker](),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) breaker(group string) *gobreaker.CircuitBreaker {
	cb, _ := c.breakers.LoadOrCompute(group, func() *gobreaker.CircuitBreaker {
		st := c.settings
		st.Name = group
		return newBreaker(st, c.logger)
	})
	return cb
}

// BreakerState reports the state of one endpoint group's breaker: a
// collection path such as "/users", or "messages".
func (c *Client) BreakerState(group string) gobreaker.State {
	return c.breaker(group).State()
}

func newBreaker(st gobreaker.Settings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if st.Timeout == 0 {
		st.Timeout = 30 * time.Second
	}
	if st.ReadyToTrip == nil {
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	if st.IsSuccessful == nil {
		st.IsSuccessful = countsAsSuccess
	}
	prev := st.OnStateChange
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		if logger != nil {
			logger.Warn("backend circuit breaker state changed", zap.String("breaker", name),
				zap.String("from", from.String()), zap.String("to", to.String()))
		}
		if prev != nil {
			prev(name, from, to)
		}
	}
	return gobreaker.NewCircuitBreaker(st)
}

// countsAsSuccess decides which errors should not trip the breaker:
// client errors (4xx) and caller cancellations say nothing about backend health.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var be *Error
	if errors.As(err, &be) && be.Kind == KindServer {
		return be.Status < 500
	}
	return false
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches one page of a collection and normalizes it.
func (c *Client) List(ctx context.Context, token, path string, q Query) (Page[Record], error) {
	body, err := c.do(ctx, groupOf(path), http.MethodGet, token, path, q.Values(), nil)
	if err != nil {
		return Page[Record]{}, err
	}
	return Normalize(body, q), nil
}

// Get fetches a single record by id. Bodies wrapped in "data" or "item" are unwrapped.
func (c *Client) Get(ctx context.Context, token, path, id string) (Record, error) {
	body, err := c.do(ctx, groupOf(path), http.MethodGet, token, itemPath(path, id), nil, nil)
	if err != nil {
		return nil, err
	}
	r, ok := decodeRecord(body)
	if !ok {
		return Record{}, nil
	}
	for _, k := range []string{"data", "item"} {
		if inner := r.Object(k); inner != nil {
			return inner, nil
		}
	}
	return r, nil
}

// Patch sends a partial update for one record.
func (c *Client) Patch(ctx context.Context, token, path, id string, patch map[string]any) error {
	_, err := c.do(ctx, groupOf(path), http.MethodPatch, token, itemPath(path, id), nil, patch)
	return err
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, token, path, id string) error {
	_, err := c.do(ctx, groupOf(path), http.MethodDelete, token, itemPath(path, id), nil, nil)
	return err
}

// LatestMessage returns the newest message of a chat thread; ok is false when
// the thread has no messages.
func (c *Client) LatestMessage(ctx context.Context, token, threadID string) (msg Message, ok bool, err error) {
	q := Query{Page: 1, Limit: 1}
	body, err := c.do(ctx, messagesBreaker, http.MethodGet, token, itemPath(Threads.Path, threadID)+"/messages", q.Values(), nil)
	if err != nil {
		return Message{}, false, err
	}
	page := NormalizeWith(body, q, append([]string{"messages"}, ItemKeys...))
	if len(page.Items) == 0 {
		return Message{}, false, nil
	}
	return MessageFrom(page.Items[0]), true, nil
}

func itemPath(path, id string) string {
	return strings.TrimRight(path, "/") + "/" + url.PathEscape(id)
}

// groupOf maps a request path to its breaker group: the first path segment.
func groupOf(path string) string {
	p := "/" + strings.Trim(path, "/")
	if i := strings.IndexByte(p[1:], '/'); i >= 0 {
		return p[:i+1]
	}
	return p
}

func (c *Client) do(ctx context.Context, group, method, token, path string, query url.Values, body any) ([]byte, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breaker(group).Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, token, path, query, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindTransport, Message: "backend unavailable (circuit open)", Err: err}
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) roundTrip(ctx context.Context, method, token, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(method, "transport").Inc()
		be := transportError(err)
		c.logger.Warn("backend request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, be
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.BackendRequests.WithLabelValues(method, "transport").Inc()
		return nil, transportError(err)
	}
	metrics.BackendRequests.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		be := serverError(resp.StatusCode, data)
		c.logger.Info("backend returned error",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode), zap.String("message", be.Message))
		return nil, be
	}
	c.logger.Debug("backend request",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))
	return data, nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
