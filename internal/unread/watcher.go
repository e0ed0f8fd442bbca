package unread

import (
	"sort"
	"sync"
)

// Watcher keeps one subscription per visible key. Keys leaving the visible
// set, and every key on Close, have their unsubscribe called exactly once.
type Watcher struct {
	src      Subscriber
	onChange func(key string, count int)

	mu     sync.Mutex
	subs   map[string]func()
	closed bool
}

// NewWatcher creates a watcher that reports changes to onChange.
func NewWatcher(src Subscriber, onChange func(key string, count int)) *Watcher {
	return &Watcher{src: src, onChange: onChange, subs: map[string]func(){}}
}

// Sync makes the subscription set equal to keys. Empty keys are ignored.
func (w *Watcher) Sync(keys []string) {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			want[k] = struct{}{}
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	var drop []func()
	for k, unsub := range w.subs {
		if _, ok := want[k]; !ok {
			drop = append(drop, unsub)
			delete(w.subs, k)
		}
	}
	var add []string
	for k := range want {
		if _, ok := w.subs[k]; !ok {
			add = append(add, k)
			// placeholder so a concurrent Sync does not subscribe twice
			w.subs[k] = nil
		}
	}
	w.mu.Unlock()

	for _, unsub := range drop {
		if unsub != nil {
			unsub()
		}
	}
	for _, k := range add {
		key := k
		unsub := w.src.Subscribe(key, func(n int) {
			if w.onChange != nil {
				w.onChange(key, n)
			}
		})
		w.mu.Lock()
		if cur, ok := w.subs[key]; ok && cur == nil && !w.closed {
			w.subs[key] = unsub
			unsub = nil
		}
		w.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}
}

// Keys returns the watched keys, sorted.
func (w *Watcher) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.subs))
	for k := range w.subs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close unsubscribes everything. Later Syncs are no-ops.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	subs := w.subs
	w.subs = map[string]func(){}
	w.mu.Unlock()

	for _, unsub := range subs {
		if unsub != nil {
			unsub()
		}
	}
}
