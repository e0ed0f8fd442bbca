package collection

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SearchDebounce is the settle time for search input.
const SearchDebounce = 500 * time.Millisecond

// Debouncer delivers only the last value pushed within a quiet period.
type Debouncer[T any] struct {
	clock Clock
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   clockwork.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer calls fn with the latest value once delay passes without a new Push.
func NewDebouncer[T any](clock Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Push records v and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.stopped
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			d.fn(v)
		}
	})
}

// Pending reports whether a value is waiting to be delivered.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop drops any pending value; later Pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
