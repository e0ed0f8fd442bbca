package collection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// PreTriggerRows is how close to the end of the list the selection must be
// before the next page is requested.
const PreTriggerRows = 3

// NearEnd reports whether the selected row is within margin rows of the end.
func NearEnd(selected, rows, margin int) bool {
	if rows == 0 {
		return false
	}
	return selected >= rows-1-margin
}

// ScrollTrigger issues one Append per sentinel visibility. Its in-flight flag
// is independent of the cache state, so two visibility events racing each
// other never produce two requests.
type ScrollTrigger[T any] struct {
	cache    *Cache[T]
	inFlight atomic.Bool

	mu sync.Mutex
	// done is set once hasMore was seen false; epoch is the replace it belongs to.
	done  bool
	epoch uint64
}

// NewScrollTrigger binds a trigger to cache.
func NewScrollTrigger[T any](cache *Cache[T]) *ScrollTrigger[T] {
	return &ScrollTrigger[T]{cache: cache}
}

// Active reports whether the trigger still observes the sentinel.
func (s *ScrollTrigger[T]) Active() bool {
	snap := s.cache.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(snap)
}

// refresh re-arms after a new replace and deactivates once hasMore is false.
// Must be called with s.mu held.
func (s *ScrollTrigger[T]) refresh(snap Snapshot[T]) bool {
	if s.done && snap.Epoch != s.epoch {
		s.done = false
	}
	if !s.done && snap.Fetched && !snap.HasMore && !snap.Busy() {
		s.done = true
		s.epoch = snap.Epoch
	}
	return !s.done
}

// Visible is called when the sentinel comes into view. It runs at most one
// Append synchronously and reports whether a request was issued.
func (s *ScrollTrigger[T]) Visible(ctx context.Context) (bool, error) {
	snap := s.cache.Snapshot()
	s.mu.Lock()
	active := s.refresh(snap)
	s.mu.Unlock()
	if !active || !snap.Fetched || !snap.HasMore || snap.Busy() {
		return false, nil
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	defer s.inFlight.Store(false)

	err := s.cache.Append(ctx)
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrExhausted), errors.Is(err, ErrNotReady):
		return false, nil
	case errors.Is(err, ErrStale):
		return true, nil
	}
	s.Active()
	return true, err
}

// InFlight reports whether an append started by this trigger is running.
func (s *ScrollTrigger[T]) InFlight() bool { return s.inFlight.Load() }
