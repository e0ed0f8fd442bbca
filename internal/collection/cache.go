// Package collection implements the paginated list cache behind every list
// view: replace/append transitions, change detection, infinite scroll and
// per-item enrichment.
package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"go.uber.org/zap"
)

// State of a Cache.
type State int

const (
	Idle State = iota
	Replacing
	Appending
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Replacing:
		return "replacing"
	case Appending:
		return "appending"
	case Error:
		return "error"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when a fetch is already in flight. The request is dropped, not queued.
	ErrBusy = errors.New("collection: fetch already in flight")
	// ErrExhausted is returned by Append when the server reported no more pages.
	ErrExhausted = errors.New("collection: no more pages")
	// ErrNotReady is returned by Append before a successful replace.
	ErrNotReady = errors.New("collection: nothing to append to")
	// ErrStale is returned when the response arrived after Reset and was discarded.
	ErrStale = errors.New("collection: response superseded")
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 20

// Fetcher performs one list request.
type Fetcher[T any] func(ctx context.Context, q backend.Query) (backend.Page[T], error)

type options struct {
	clock    Clock
	timeout  time.Duration
	logger   *zap.Logger
	resource string
	limit    int
}

// Option configures a Cache.
type Option func(*options)

// WithClock overrides the clock used for lastFetched.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithTimeout bounds every fetch. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResource names the collection in logs and metrics.
func WithResource(name string) Option { return func(o *options) { o.resource = name } }

// WithLimit sets the page size.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// Snapshot is a consistent copy of a Cache's state.
type Snapshot[T any] struct {
	Items       []T
	Page        int
	Limit       int
	HasMore     bool
	Total       int
	State       State
	Err         error
	LastFetched time.Time
	LastParams  Params
	// Fetched is false until the first successful replace.
	Fetched bool
	// Epoch counts successful replaces.
	Epoch uint64
}

// Loading reports a replace in flight.
func (s Snapshot[T]) Loading() bool { return s.State == Replacing }

// LoadingMore reports an append in flight.
func (s Snapshot[T]) LoadingMore() bool { return s.State == Appending }

// Busy reports any fetch in flight.
func (s Snapshot[T]) Busy() bool { return s.Loading() || s.LoadingMore() }

// ErrorMessage returns the error text, "" when there is none.
func (s Snapshot[T]) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Cache holds one paginated list. At most one fetch runs at a time; every
// fetch carries a generation and responses from an older generation are
// dropped.
type Cache[T any] struct {
	fetch Fetcher[T]
	key   func(T) string
	opts  options

	mu          sync.Mutex
	items       []T
	index       map[string]int
	page        int
	hasMore     bool
	total       int
	state       State
	err         error
	lastFetched time.Time
	lastParams  Params
	fetched     bool
	epoch       uint64
	gen         uint64
	cancel      context.CancelFunc

	changes chan struct{}
}

// New creates an empty cache. key extracts the identity key of an item.
func New[T any](fetch Fetcher[T], key func(T) string, opts ...Option) *Cache[T] {
	o := options{
		clock:    SystemClock,
		timeout:  backend.DefaultTimeout,
		logger:   zap.NewNop(),
		resource: "list",
		limit:    DefaultLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		fetch:   fetch,
		key:     key,
		opts:    o,
		index:   map[string]int{},
		changes: make(chan struct{}, 1),
	}
}

// Resource returns the collection name.
func (c *Cache[T]) Resource() string { return c.opts.resource }

// Limit returns the page size.
func (c *Cache[T]) Limit() int { return c.opts.limit }

// Key returns the identity key of item.
func (c *Cache[T]) Key(item T) string { return c.key(item) }

// Changes signals after every state change. Signals coalesce.
func (c *Cache[T]) Changes() <-chan struct{} { return c.changes }

func (c *Cache[T]) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current state.
func (c *Cache[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Items:       items,
		Page:        c.page,
		Limit:       c.opts.limit,
		HasMore:     c.hasMore,
		Total:       c.total,
		State:       c.state,
		Err:         c.err,
		LastFetched: c.lastFetched,
		LastParams:  c.lastParams,
		Fetched:     c.fetched,
		Epoch:       c.epoch,
	}
}

// begin moves into a fetching state and returns the request context and generation.
func (c *Cache[T]) begin(ctx context.Context, to State) (context.Context, uint64) {
	c.gen++
	c.state = to
	c.err = nil
	ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	c.cancel = cancel
	return ctx, c.gen
}

// finish reports whether gen is still current, releasing the request context.
// Must be called with c.mu held.
func (c *Cache[T]) finish(gen uint64) bool {
	if gen != c.gen {
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}

// Replace fetches page 1 with params and replaces the list. Legal from Idle
// and Error.
func (c *Cache[T]) Replace(ctx context.Context, params Params) error {
	c.mu.Lock()
	if c.state == Replacing || c.state == Appending {
		c.mu.Unlock()
		return ErrBusy
	}
	reqCtx, gen := c.begin(ctx, Replacing)
	c.mu.Unlock()
	c.notify()

	start := time.Now()
	page, err := c.fetch(reqCtx, params.Query(1, c.opts.limit))
	metrics.FetchDuration.WithLabelValues(c.opts.resource, "replace").Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if !c.finish(gen) {
		c.mu.Unlock()
		c.discard("replace", err)
		return ErrStale
	}
	if err != nil {
		c.err = classify(err)
		c.state = Error
		c.mu.Unlock()
		metrics.FetchTotal.WithLabelValues(c.opts.resource, "replace", "error").Inc()
		c.opts.logger.Warn("list replace failed",
			zap.String("resource", c.opts.resource), zap.Error(err))
		c.notify()
		return c.err
	}

	c.items = c.items[:0:0]
	c.index = make(map[string]int, len(page.Items))
	c.merge(page.Items)
	c.page = page.Page
	c.hasMore = page.HasMore
	c.total = page.Total
	c.lastFetched = c.opts.clock.Now()
	c.lastParams = params
	c.fetched = true
	c.epoch++
	c.state = Idle
	n := len(c.items)
	c.mu.Unlock()

	metrics.FetchTotal.WithLabelValues(c.opts.resource, "replace", "ok").Inc()
	c.opts.logger.Debug("list replaced",
		zap.String("resource", c.opts.resource), zap.Int("items", n), zap.Bool("has_more", page.HasMore))
	c.notify()
	return nil
}

// Append fetches the next page with the last replace's params and merges it.
// Legal only from Idle with more pages available. A failure leaves the items
// usable: the error is recorded and the state returns to Idle.
func (c *Cache[T]) Append(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == Replacing || c.state == Appending:
		c.mu.Unlock()
		return ErrBusy
	case !c.fetched || c.state != Idle:
		c.mu.Unlock()
		return ErrNotReady
	case !c.hasMore:
		c.mu.Unlock()
		return ErrExhausted
	}
	next := c.page + 1
	params := c.lastParams
	reqCtx, gen := c.begin(ctx, Appending)
	c.mu.Unlock()
	c.notify()

	start := time.Now()
	page, err := c.fetch(reqCtx, params.Query(next, c.opts.limit))
	metrics.FetchDuration.WithLabelValues(c.opts.resource, "append").Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if !c.finish(gen) {
		c.mu.Unlock()
		c.discard("append", err)
		return ErrStale
	}
	c.state = Idle
	if err != nil {
		c.err = classify(err)
		c.mu.Unlock()
		metrics.FetchTotal.WithLabelValues(c.opts.resource, "append", "error").Inc()
		c.opts.logger.Warn("list append failed",
			zap.String("resource", c.opts.resource), zap.Int("page", next), zap.Error(err))
		c.notify()
		return c.err
	}
	added := c.merge(page.Items)
	c.page = page.Page
	c.hasMore = page.HasMore
	if page.Total > 0 {
		c.total = page.Total
	}
	c.mu.Unlock()

	metrics.FetchTotal.WithLabelValues(c.opts.resource, "append", "ok").Inc()
	c.opts.logger.Debug("list appended",
		zap.String("resource", c.opts.resource), zap.Int("page", page.Page),
		zap.Int("added", added), zap.Bool("has_more", page.HasMore))
	c.notify()
	return nil
}

// classify turns context failures into transport errors so that a timeout
// reads the same whether the fetcher or the HTTP client noticed it.
func classify(err error) error {
	var be *backend.Error
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return backend.AsError(err)
	}
	return err
}

func (c *Cache[T]) discard(mode string, err error) {
	metrics.StaleResponses.WithLabelValues(c.opts.resource).Inc()
	c.opts.logger.Debug("discarded superseded response",
		zap.String("resource", c.opts.resource), zap.String("mode", mode), zap.Error(err))
}

// merge appends items whose key is not yet present, in order. Items without
// a key are kept. Must be called with c.mu held.
func (c *Cache[T]) merge(items []T) int {
	added := 0
	for _, it := range items {
		k := c.key(it)
		if k != "" {
			if _, dup := c.index[k]; dup {
				continue
			}
			c.index[k] = len(c.items)
		}
		c.items = append(c.items, it)
		added++
	}
	return added
}

// UpdateItem replaces the item with key by fn(item) without a refetch.
// When fn changes the identity the index follows the new key; an update whose
// new key is empty or already taken is dropped. It reports whether the item
// was updated.
func (c *Cache[T]) UpdateItem(key string, fn func(T) T) bool {
	c.mu.Lock()
	i, ok := c.index[key]
	if ok {
		updated := fn(c.items[i])
		if nk := c.key(updated); nk != key {
			if _, taken := c.index[nk]; taken || nk == "" {
				ok = false
			} else {
				delete(c.index, key)
				c.index[nk] = i
			}
		}
		if ok {
			c.items[i] = updated
		}
	}
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

// RemoveItem drops the item with key. It reports whether the key was present.
func (c *Cache[T]) RemoveItem(key string) bool {
	c.mu.Lock()
	i, ok := c.index[key]
	if ok {
		c.items = append(c.items[:i], c.items[i+1:]...)
		delete(c.index, key)
		for k, j := range c.index {
			if j > i {
				c.index[k] = j - 1
			}
		}
		if c.total > 0 {
			c.total--
		}
	}
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

// Get returns the item with key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Reset discards all state and invalidates any in-flight fetch.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.items = nil
	c.index = map[string]int{}
	c.page = 0
	c.hasMore = false
	c.total = 0
	c.state = Idle
	c.err = nil
	c.lastFetched = time.Time{}
	c.lastParams = Params{}
	c.fetched = false
	c.mu.Unlock()
	c.notify()
}
