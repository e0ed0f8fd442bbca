package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/matheus3301/fleetdesk/internal/store"
	"go.uber.org/zap"
)

// Writer is the write side of the backend client.
type Writer interface {
	Patch(ctx context.Context, token, path, id string, patch map[string]any) error
	Delete(ctx context.Context, token, path, id string) error
}

// TokenSource returns the current bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Result is the payload of write.queued, write.ack and write.failed events.
type Result struct {
	OpID     string
	Resource string
	ItemID   string
	Method   string
	Error    string
	Retrying bool
}

// Options tune the sender loop.
type Options struct {
	Poll       time.Duration
	MaxRetries int
}

// Sender drains the write queue and delivers each point update to the backend.
type Sender struct {
	db     *store.DB
	writer Writer
	tokens TokenSource
	bus    *bus.Bus
	opts   Options
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSender creates a new outbox sender.
func NewSender(db *store.DB, writer Writer, tokens TokenSource, b *bus.Bus, opts Options, logger *zap.Logger) *Sender {
	if opts.Poll <= 0 {
		opts.Poll = 500 * time.Millisecond
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:     db,
		writer: writer,
		tokens: tokens,
		bus:    b,
		opts:   opts,
		logger: logger,
	}
}

// Enqueue validates and stores a write. An empty opID gets a fresh UUID.
func (s *Sender) Enqueue(opID, resource, itemID, method string, patch map[string]any) (*store.PendingWrite, error) {
	res, err := backend.ResourceByName(resource)
	if err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, errors.New("item id is required")
	}
	switch method {
	case http.MethodPatch:
		if len(patch) == 0 {
			return nil, errors.New("patch must not be empty")
		}
	case http.MethodDelete:
		patch = nil
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	if opID == "" {
		opID = uuid.NewString()
	}
	body := "{}"
	if patch != nil {
		b, err := json.Marshal(patch)
		if err != nil {
			return nil, fmt.Errorf("encode patch: %w", err)
		}
		body = string(b)
	}

	w := &store.PendingWrite{OpID: opID, Resource: res.Name, ItemID: itemID, Method: method, Patch: body}
	if err := s.db.QueueWrite(w); err != nil {
		return nil, fmt.Errorf("queue write: %w", err)
	}
	stored, err := s.db.GetWrite(opID)
	if err != nil {
		return nil, err
	}
	s.bus.Emit(bus.KindWriteQueued, Result{OpID: opID, Resource: res.Name, ItemID: itemID, Method: method})
	return stored, nil
}

// Start begins polling the queue for pending writes.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the sender loop and waits for an in-progress pass to finish.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ProcessPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending makes one pass over the queue. It returns the number of
// writes attempted.
func (s *Sender) ProcessPending(ctx context.Context) int {
	pending, err := s.db.PendingWrites()
	if err != nil {
		s.logger.Error("failed to read write queue", zap.Error(err))
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Debug("write queue waiting for a token", zap.Int("pending", len(pending)), zap.Error(err))
		return 0
	}

	attempted := 0
	for _, w := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := s.db.MarkWriteSending(w.OpID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("op_id", w.OpID))
			continue
		}
		attempted++
		w.Attempts++

		res := Result{OpID: w.OpID, Resource: w.Resource, ItemID: w.ItemID, Method: w.Method}
		if err := s.deliver(ctx, token, w); err != nil {
			res.Error = err.Error()
			res.Retrying = retryable(err) && w.Attempts < s.opts.MaxRetries
			if markErr := s.db.MarkWriteFailed(w.OpID, err.Error(), res.Retrying); markErr != nil {
				s.logger.Error("failed to mark failed", zap.Error(markErr), zap.String("op_id", w.OpID))
			}
			outcome := "failed"
			if res.Retrying {
				outcome = "retry"
			}
			metrics.WritesTotal.WithLabelValues(outcome).Inc()
			s.logger.Warn("write failed",
				zap.String("op_id", w.OpID), zap.String("resource", w.Resource),
				zap.String("item_id", w.ItemID), zap.Bool("retrying", res.Retrying), zap.Error(err))
			s.bus.Emit(bus.KindWriteFailed, res)
			continue
		}

		if err := s.db.MarkWriteSent(w.OpID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("op_id", w.OpID))
		}
		metrics.WritesTotal.WithLabelValues("sent").Inc()
		s.logger.Info("write delivered", zap.String("op_id", w.OpID), zap.String("resource", w.Resource), zap.String("item_id", w.ItemID))
		s.bus.Emit(bus.KindWriteAck, res)
	}
	return attempted
}

func (s *Sender) deliver(ctx context.Context, token string, w store.PendingWrite) error {
	res, err := backend.ResourceByName(w.Resource)
	if err != nil {
		return err
	}
	switch w.Method {
	case http.MethodPatch:
		var patch map[string]any
		if err := json.Unmarshal([]byte(w.Patch), &patch); err != nil {
			return fmt.Errorf("decode patch: %w", err)
		}
		return s.writer.Patch(ctx, token, res.Path, w.ItemID, patch)
	case http.MethodDelete:
		return s.writer.Delete(ctx, token, res.Path, w.ItemID)
	}
	return fmt.Errorf("unsupported method %q", w.Method)
}

// retryable reports whether a failed write may succeed later: transport
// failures and 5xx responses. 4xx responses are final.
func retryable(err error) bool {
	var be *backend.Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Kind == backend.KindTransport || be.Status >= 500 || be.Status == http.StatusTooManyRequests
}
