package collection

import (
	"context"
	"sync"

	"github.com/matheus3301/fleetdesk/internal/backend"
)

// fakeBackend serves scripted pages keyed by page number.
type fakeBackend struct {
	mu      sync.Mutex
	pages   map[int][]string
	hasMore map[int]bool
	calls   []backend.Query
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pages: map[int][]string{}, hasMore: map[int]bool{}}
}

func (f *fakeBackend) set(page int, more bool, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[page] = ids
	f.hasMore[page] = more
}

func (f *fakeBackend) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// block makes every following fetch wait until the returned func is called.
func (f *fakeBackend) block() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 16)
	gate := f.gate
	var once sync.Once
	return func() {
		once.Do(func() {
			close(gate)
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
		})
	}
}

func (f *fakeBackend) fetch(ctx context.Context, q backend.Query) (backend.Page[backend.Record], error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate, entered, err := f.gate, f.entered, f.err
	ids, more := f.pages[q.Page], f.hasMore[q.Page]
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.Page[backend.Record]{}, ctx.Err()
		}
	}
	if err != nil {
		return backend.Page[backend.Record]{}, err
	}
	items := make([]backend.Record, 0, len(ids))
	for _, id := range ids {
		items = append(items, backend.Record{"id": id})
	}
	return backend.Page[backend.Record]{Items: items, Page: q.Page, Limit: q.Limit, HasMore: more}, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) lastCall() backend.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newRecordCache(f *fakeBackend, opts ...Option) *Cache[backend.Record] {
	return New[backend.Record](f.fetch, backend.UserKey, opts...)
}

func keys(items []backend.Record) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = backend.UserKey(it)
	}
	return out
}
