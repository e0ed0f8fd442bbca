// Package realtime consumes the backend's websocket push channel and
// republishes unread-count changes on the daemon bus.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/bus"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// State of the feed connection.
type State string

const (
	StateStopped      State = "stopped"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	// StateUnauthorized means no token is stored or the server rejected it.
	StateUnauthorized State = "unauthorized"
)

// Envelope is one frame of the push channel.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Unread is the payload of an unread-count change.
type Unread struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// StateChange is published as bus.KindRealtimeState.
type StateChange struct {
	State   State
	Attempt int
	Delay   time.Duration
	Err     string
}

// TokenSource returns the current bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config configures a Feed.
type Config struct {
	URL       string
	Tokens    TokenSource
	BaseDelay time.Duration
	MaxDelay  time.Duration
	ReadLimit int64
	Logger    *zap.Logger
}

// Feed keeps one websocket connection open, reconnecting with backoff.
type Feed struct {
	cfg    Config
	bus    *bus.Bus
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr string
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped feed.
func New(cfg Config, b *bus.Bus) *Feed {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Feed{cfg: cfg, bus: b, logger: cfg.Logger, state: StateStopped}
}

// Enabled reports whether a realtime URL is configured.
func (f *Feed) Enabled() bool { return f.cfg.URL != "" }

// State returns the current connection state and last error.
func (f *Feed) State() (State, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.lastErr
}

// Start launches the connection loop. Starting a running feed is a no-op.
func (f *Feed) Start(ctx context.Context) error {
	if !f.Enabled() {
		return errors.New("realtime url not configured")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return nil
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.run(ctx, f.done)
	return nil
}

// Stop closes the connection and waits for the loop to exit.
func (f *Feed) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	f.setState(StateChange{State: StateStopped})
}

func (f *Feed) setState(sc StateChange) {
	f.mu.Lock()
	changed := f.state != sc.State || f.lastErr != sc.Err
	f.state = sc.State
	f.lastErr = sc.Err
	f.mu.Unlock()
	if changed && f.bus != nil {
		f.bus.Emit(bus.KindRealtimeState, sc)
	}
}

func (f *Feed) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	recon := newReconnector(f.cfg.BaseDelay, f.cfg.MaxDelay)

	for ctx.Err() == nil {
		f.setState(StateChange{State: StateConnecting, Attempt: recon.attempt})
		err := f.session(ctx, recon)
		if ctx.Err() != nil {
			return
		}

		next := StateReconnecting
		if errors.Is(err, errUnauthorized) {
			next = StateUnauthorized
		}
		delay := recon.nextDelay()
		f.logger.Warn("realtime feed disconnected",
			zap.Error(err), zap.Int("attempt", recon.attempt), zap.Duration("retry_in", delay))
		f.setState(StateChange{State: next, Attempt: recon.attempt, Delay: delay, Err: errString(err)})

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

var errUnauthorized = errors.New("realtime: unauthorized")

// session dials once and reads until the connection fails.
func (f *Feed) session(ctx context.Context, recon *reconnector) error {
	token, err := f.cfg.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errUnauthorized, err)
	}

	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, resp, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	cancel()
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: status %d", errUnauthorized, resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	conn.SetReadLimit(f.cfg.ReadLimit)

	recon.markConnected()
	f.logger.Info("realtime feed connected", zap.String("url", f.cfg.URL))
	f.setState(StateChange{State: StateConnected})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusPolicyViolation {
				return fmt.Errorf("%w: %v", errUnauthorized, err)
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		f.handle(data)
	}
}

func (f *Feed) handle(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		f.logger.Debug("ignoring malformed realtime frame", zap.Error(err))
		return
	}
	switch env.Type {
	case "unread":
		if u, ok := ParseUnread(env.Payload); ok {
			f.bus.Emit(bus.KindRealtimeUnread, u)
		}
	case "unread.snapshot":
		f.bus.Emit(bus.KindRealtimeSnapshot, ParseSnapshot(env.Payload))
	}
}

// ParseUnread decodes an unread payload. Keys may be sent as key, threadId
// or chatThreadId and counts as count or unreadCount.
func ParseUnread(raw json.RawMessage) (Unread, bool) {
	var r backend.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Unread{}, false
	}
	key := r.String("key", "threadId", "chatThreadId", "userId")
	if key == "" {
		return Unread{}, false
	}
	count := r.Int("count", "unreadCount", "unread")
	if count < 0 {
		count = 0
	}
	return Unread{Key: key, Count: count}, true
}

// ParseSnapshot decodes {"counts": {"key": n, ...}}.
func ParseSnapshot(raw json.RawMessage) []Unread {
	var snap struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}
	out := make([]Unread, 0, len(snap.Counts))
	keys := make([]string, 0, len(snap.Counts))
	for k := range snap.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n := snap.Counts[k]
		if k == "" {
			continue
		}
		if n < 0 {
			n = 0
		}
		out = append(out, Unread{Key: k, Count: n})
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
