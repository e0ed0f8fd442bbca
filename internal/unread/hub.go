// Package unread fans unread-count changes out to per-key subscribers and
// keeps a list view's subscriptions in step with its visible rows.
package unread

import (
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Callback receives the new unread count of a key.
type Callback func(count int)

// Subscriber is anything that hands out per-key subscriptions.
type Subscriber interface {
	Subscribe(key string, cb Callback) (unsubscribe func())
}

// Hub holds the latest count per key and notifies subscribers on change.
type Hub struct {
	counts *xsync.MapOf[string, int]
	logger *zap.Logger

	mu   sync.Mutex
	subs map[string]map[string]Callback
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		counts: xsync.NewMapOf[string, int](),
		logger: logger,
		subs:   map[string]map[string]Callback{},
	}
}

// Subscribe registers cb for key. When a count is already known cb is
// invoked with it right away. The returned func is safe to call more than once.
func (h *Hub) Subscribe(key string, cb Callback) func() {
	id := uuid.NewString()
	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = map[string]Callback{}
	}
	h.subs[key][id] = cb
	h.mu.Unlock()

	if n, ok := h.counts.Load(key); ok {
		cb(n)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
		})
	}
}

// Publish records count for key and notifies its subscribers when it changed.
// Negative counts are clamped to zero.
func (h *Hub) Publish(key string, count int) {
	if count < 0 {
		count = 0
	}
	prev, loaded := h.counts.LoadAndStore(key, count)
	if loaded && prev == count {
		return
	}

	h.mu.Lock()
	cbs := make([]Callback, 0, len(h.subs[key]))
	for _, cb := range h.subs[key] {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()

	h.logger.Debug("unread changed", zap.String("key", key), zap.Int("count", count), zap.Int("subscribers", len(cbs)))
	for _, cb := range cbs {
		cb(count)
	}
}

// Count returns the last known count for key.
func (h *Hub) Count(key string) int {
	n, _ := h.counts.Load(key)
	return n
}

// Total sums every known count.
func (h *Hub) Total() int {
	total := 0
	h.counts.Range(func(_ string, n int) bool {
		total += n
		return true
	})
	return total
}

// Subscribers returns the number of live subscriptions for key.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}
