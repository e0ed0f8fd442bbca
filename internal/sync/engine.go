package sync

import (
	"context"
	"fmt"

	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/matheus3301/fleetdesk/internal/realtime"
	"github.com/matheus3301/fleetdesk/internal/store"
	"go.uber.org/zap"
)

// UnreadChange is the payload of bus.KindUnreadChanged.
type UnreadChange struct {
	Key   string
	Count int
}

// Engine handles idempotent ingestion of unread counters into the store.
// It subscribes to "realtime." events on the bus and processes them.
type Engine struct {
	db         *store.DB
	bus        *bus.Bus
	reconciler *Reconciler
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:         db,
		bus:        b,
		reconciler: NewReconciler(db, logger),
		logger:     logger,
	}
}

// Start subscribes to realtime events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("realtime.", 256)
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindRealtimeUnread:
		u, ok := evt.Payload.(realtime.Unread)
		if !ok {
			return
		}
		if err := e.IngestUnread(u); err != nil {
			e.logger.Error("failed to ingest unread count", zap.Error(err), zap.String("key", u.Key))
		}
	case bus.KindRealtimeSnapshot:
		snap, ok := evt.Payload.([]realtime.Unread)
		if !ok {
			return
		}
		changed, err := e.reconciler.Reconcile(snap)
		if err != nil {
			e.logger.Error("failed to reconcile unread snapshot", zap.Error(err), zap.Int("count", len(snap)))
			return
		}
		for _, c := range changed {
			e.publish(c)
		}
		e.logger.Info("unread snapshot reconciled", zap.Int("keys", len(snap)), zap.Int("changed", len(changed)))
	}
}

// IngestUnread stores one counter. Repeating the same value is a no-op and
// publishes nothing.
func (e *Engine) IngestUnread(u realtime.Unread) error {
	changed, err := e.db.SetUnread(u.Key, u.Count)
	if err != nil {
		return fmt.Errorf("set unread: %w", err)
	}
	if changed {
		e.publish(UnreadChange{Key: u.Key, Count: max(u.Count, 0)})
	}
	return nil
}

func (e *Engine) publish(c UnreadChange) {
	metrics.UnreadUpdates.Inc()
	e.bus.Emit(bus.KindUnreadChanged, c)
}
