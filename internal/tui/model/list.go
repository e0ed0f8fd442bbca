package model

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/collection"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"go.uber.org/zap"
)

// API is the part of *backend.Client the lists read from.
type API interface {
	collection.Lister
	collection.MessageSource
}

// WriteQueue accepts point updates for delivery by the daemon.
type WriteQueue interface {
	QueueWrite(ctx context.Context, req rpc.WriteRequest) (rpc.Write, error)
}

// ListOptions tune every mounted list.
type ListOptions struct {
	PageSize      int
	StaleAfter    time.Duration
	Debounce      time.Duration
	EnrichWorkers int
	Timeout       time.Duration
	Clock         collection.Clock
}

// List is one mounted list view: a record cache with its controller, plus
// the point updates the view can apply to its items.
type List struct {
	Resource backend.Resource

	ctl    *collection.Controller[backend.Record]
	writes WriteQueue
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]pendingWrite
}

// pendingWrite is an optimistic change waiting for the daemon to deliver it.
type pendingWrite struct {
	key     string
	prev    backend.Record
	applied map[string]any
	removed bool
}

// NewList builds the cache, controller and (for threads) the last-message
// enricher for res.
func NewList(api API, writes WriteQueue, token collection.TokenFunc, res backend.Resource, opts ListOptions, onError func(error), logger *zap.Logger) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("resource", res.Name))

	cacheOpts := []collection.Option{collection.WithLogger(logger)}
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, collection.WithClock(opts.Clock))
	}
	if opts.PageSize > 0 {
		cacheOpts = append(cacheOpts, collection.WithLimit(opts.PageSize))
	}
	if opts.Timeout > 0 {
		cacheOpts = append(cacheOpts, collection.WithTimeout(opts.Timeout))
	}
	cache := collection.NewRecordCache(api, token, res, cacheOpts...)

	cfg := collection.ControllerConfig{
		Clock:      opts.Clock,
		StaleAfter: opts.StaleAfter,
		Debounce:   opts.Debounce,
		Logger:     logger,
		OnError:    onError,
	}
	if res.Name == backend.Threads.Name {
		cfg.Enricher = collection.NewEnricher(cache, collection.LastMessageSpec(api, token), opts.EnrichWorkers, logger)
	}
	return &List{
		Resource: res,
		ctl:      collection.NewController(cache, cfg),
		writes:   writes,
		logger:   logger,
		pending:  map[string]pendingWrite{},
	}
}

// Controller returns the list controller.
func (l *List) Controller() *collection.Controller[backend.Record] { return l.ctl }

// Snapshot returns the cache state.
func (l *List) Snapshot() collection.Snapshot[backend.Record] { return l.ctl.Cache().Snapshot() }

// Changes signals cache updates.
func (l *List) Changes() <-chan struct{} { return l.ctl.Cache().Changes() }

// Get returns the loaded item with key.
func (l *List) Get(key string) (backend.Record, bool) { return l.ctl.Cache().Get(key) }

// Key returns the identity of r.
func (l *List) Key(r backend.Record) string { return l.Resource.Key(r) }

func (l *List) Evaluate(ctx context.Context) (bool, error) { return l.ctl.Evaluate(ctx) }
func (l *List) Refresh(ctx context.Context) (bool, error)  { return l.ctl.Refresh(ctx) }
func (l *List) Tick(ctx context.Context) (bool, error)     { return l.ctl.Tick(ctx) }
func (l *List) SetSearch(q string)                         { l.ctl.SetSearch(q) }
func (l *List) SearchText() string                         { return l.ctl.Params().SearchText() }

// Filters returns the active list filters.
func (l *List) Filters() backend.Filters { return l.ctl.Params().Filters }

// SetFilters replaces the list filters, keeping the search text, and lets
// the gate decide whether to refetch. Only documents can be filtered.
func (l *List) SetFilters(ctx context.Context, f backend.Filters) (bool, error) {
	if l.Resource.Name != backend.Documents.Name && !f.IsZero() {
		return false, fmt.Errorf("%s cannot be filtered", l.Resource.Name)
	}
	if err := f.Validate(); err != nil {
		return false, err
	}
	p := l.ctl.Params()
	p.Filters = f
	return l.ctl.SetParams(ctx, p)
}

// SelectionMoved reports the selected index; near the end of the loaded
// rows it asks the controller for the next page.
func (l *List) SelectionMoved(ctx context.Context, selected int) (bool, error) {
	if !collection.NearEnd(selected, len(l.Snapshot().Items), collection.PreTriggerRows) {
		return false, nil
	}
	return l.ctl.Visible(ctx)
}

// Close unmounts the list.
func (l *List) Close() { l.ctl.Close() }

// MarkSeen marks a document as seen.
func (l *List) MarkSeen(ctx context.Context, key string) error {
	if l.Resource.Name != backend.Documents.Name {
		return fmt.Errorf("%s cannot be marked seen", l.Resource.Name)
	}
	return l.patch(ctx, key, map[string]any{backend.FieldSeen: true})
}

// ToggleFlag flips the flagged state of a document.
func (l *List) ToggleFlag(ctx context.Context, key string) error {
	if l.Resource.Name != backend.Documents.Name {
		return fmt.Errorf("%s cannot be flagged", l.Resource.Name)
	}
	item, ok := l.Get(key)
	if !ok {
		return fmt.Errorf("document %s is not loaded", key)
	}
	return l.patch(ctx, key, map[string]any{backend.FieldFlagged: !backend.DocumentFrom(item).Flagged})
}

// Remove deletes a driver from the roster. The row goes away once the
// daemon accepted the write.
func (l *List) Remove(ctx context.Context, key string) error {
	if l.Resource.Name != backend.Drivers.Name {
		return fmt.Errorf("%s cannot be removed", l.Resource.Name)
	}
	cache := l.ctl.Cache()
	if _, ok := cache.Get(key); !ok {
		return fmt.Errorf("driver %s is not loaded", key)
	}
	opID := l.track(pendingWrite{key: key, removed: true})
	if _, err := l.writes.QueueWrite(ctx, rpc.WriteRequest{OpID: opID, Resource: l.Resource.Name, ItemID: key, Method: http.MethodDelete}); err != nil {
		l.untrack(opID)
		return err
	}
	cache.RemoveItem(key)
	return nil
}

// patch applies fields to the cached item first and queues the write. A
// rejected write restores the previous item.
func (l *List) patch(ctx context.Context, key string, fields map[string]any) error {
	cache := l.ctl.Cache()
	prev, ok := cache.Get(key)
	if !ok {
		return fmt.Errorf("%s %s is not loaded", l.Resource.Name, key)
	}
	opID := l.track(pendingWrite{key: key, prev: prev, applied: fields})
	cache.UpdateItem(key, func(r backend.Record) backend.Record {
		out := r.Clone()
		for k, v := range fields {
			out[k] = v
		}
		return out
	})
	_, err := l.writes.QueueWrite(ctx, rpc.WriteRequest{
		OpID: opID, Resource: l.Resource.Name, ItemID: key, Method: http.MethodPatch, Patch: fields,
	})
	if err != nil {
		l.untrack(opID)
		cache.UpdateItem(key, func(backend.Record) backend.Record { return prev })
		l.logger.Warn("point update rejected", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (l *List) track(pw pendingWrite) string {
	opID := uuid.NewString()
	l.mu.Lock()
	l.pending[opID] = pw
	l.mu.Unlock()
	return opID
}

func (l *List) untrack(opID string) (pendingWrite, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pw, ok := l.pending[opID]
	delete(l.pending, opID)
	return pw, ok
}

// Pending returns the number of optimistic changes not yet settled.
func (l *List) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Settle applies a write outcome reported by the daemon. Once a write of
// this list fails for good its optimistic change is undone: patched fields
// go back to their previous values unless they changed again since, and a
// removed driver comes back through a refresh. It reports whether a change
// was undone.
func (l *List) Settle(ctx context.Context, ev rpc.WriteEvent) (bool, error) {
	if !ev.Final() {
		return false, nil
	}
	pw, ok := l.untrack(ev.OpID)
	if !ok || ev.Outcome == rpc.WriteAcked {
		return false, nil
	}
	l.logger.Warn("write failed, undoing", zap.String("key", pw.key), zap.String("error", ev.Error))
	if pw.removed {
		_, err := l.ctl.Refresh(ctx)
		return true, err
	}
	l.ctl.Cache().UpdateItem(pw.key, func(r backend.Record) backend.Record {
		out := r.Clone()
		for k, v := range pw.applied {
			if !reflect.DeepEqual(out[k], v) {
				continue
			}
			if old, had := pw.prev[k]; had {
				out[k] = old
			} else {
				delete(out, k)
			}
		}
		return out
	})
	return true, nil
}
