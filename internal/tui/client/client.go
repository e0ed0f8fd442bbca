package client

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/unread"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client gives the TUI its two collaborators: the session daemon (token,
// status, unread feed, write queue) and the REST backend (lists).
type Client struct {
	daemon *rpc.Client
	api    *backend.Client
	logger *zap.Logger
}

// New dials the daemon's Unix domain socket.
func New(socketPath string, api *backend.Client, logger *zap.Logger) (*Client, error) {
	d, err := rpc.Dial(socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return NewWithDaemon(d, api, logger), nil
}

// NewWithDaemon wraps an existing daemon client.
func NewWithDaemon(d *rpc.Client, api *backend.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{daemon: d, api: api, logger: logger}
}

// Daemon returns the daemon API.
func (c *Client) Daemon() *rpc.Client { return c.daemon }

// API returns the REST backend client.
func (c *Client) API() *backend.Client { return c.api }

// Token returns the daemon's current token. A daemon without a token
// yields backend.ErrNoToken so list fetches fail without a request.
func (c *Client) Token(ctx context.Context) (string, error) {
	tok, err := c.daemon.GetToken(ctx)
	if status.Code(err) == codes.NotFound {
		return "", backend.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return tok, nil
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (rpc.Status, error) {
	return c.daemon.GetStatus(ctx)
}

// SetToken stores a new token in the daemon.
func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.daemon.SetToken(ctx, token)
}

// QueueWrite hands a point update to the daemon's write queue.
func (c *Client) QueueWrite(ctx context.Context, req rpc.WriteRequest) (rpc.Write, error) {
	return c.daemon.QueueWrite(ctx, req)
}

// FollowUnread streams unread counters from the daemon into hub until ctx is
// done, re-opening the stream after retry when it breaks.
func (c *Client) FollowUnread(ctx context.Context, hub *unread.Hub, retry time.Duration) {
	c.follow(ctx, "unread", retry, func(ctx context.Context) error {
		return c.daemon.WatchUnread(ctx, func(it rpc.UnreadItem) {
			hub.Publish(it.Key, it.Count)
		})
	})
}

// FollowWrites passes every write event to fn until ctx is done, re-opening
// the stream after retry when it breaks.
func (c *Client) FollowWrites(ctx context.Context, fn func(rpc.WriteEvent), retry time.Duration) {
	c.follow(ctx, "writes", retry, func(ctx context.Context) error {
		return c.daemon.WatchWrites(ctx, fn)
	})
}

func (c *Client) follow(ctx context.Context, name string, retry time.Duration, open func(context.Context) error) {
	if retry <= 0 {
		retry = 2 * time.Second
	}
	for ctx.Err() == nil {
		err := open(ctx)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("daemon stream ended", zap.String("stream", name), zap.Error(err), zap.Duration("retry_in", retry))
		t := time.NewTimer(retry)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

// Close closes the daemon connection.
func (c *Client) Close() error {
	return c.daemon.Close()
}
