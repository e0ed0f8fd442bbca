package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner is the type-erased side of an Enricher.
type Runner interface {
	Run(ctx context.Context) int
	Reset()
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Clock      Clock
	StaleAfter time.Duration
	Debounce   time.Duration
	Enricher   Runner
	Params     Params
	Logger     *zap.Logger
	// OnError is called with errors from fetches the controller starts on its own
	// (debounced search).
	OnError func(error)
}

// Controller glues a cache to the events of one list view: search input,
// filter changes, periodic ticks and scroll visibility.
type Controller[T any] struct {
	cache    *Cache[T]
	gate     Gate
	search   *Debouncer[string]
	scroll   *ScrollTrigger[T]
	enricher Runner
	logger   *zap.Logger
	onError  func(error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	params Params
	closed bool
}

// NewController creates a controller. Close must be called when the view goes away.
func NewController[T any](cache *Cache[T], cfg ControllerConfig) *Controller[T] {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = SearchDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		cache:    cache,
		gate:     Gate{Clock: cfg.Clock, StaleAfter: cfg.StaleAfter},
		scroll:   NewScrollTrigger(cache),
		enricher: cfg.Enricher,
		logger:   cfg.Logger,
		onError:  cfg.OnError,
		ctx:      ctx,
		cancel:   cancel,
		params:   cfg.Params,
	}
	c.search = NewDebouncer(cfg.Clock, cfg.Debounce, c.applySearch)
	return c
}

// Cache returns the underlying cache.
func (c *Controller[T]) Cache() *Cache[T] { return c.cache }

// Params returns the current parameters.
func (c *Controller[T]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetSearch feeds raw search input. The value becomes part of the params,
// and may trigger a replace, only after the debounce settles.
func (c *Controller[T]) SetSearch(q string) {
	c.search.Push(q)
}

// SearchPending reports whether search input is still settling.
func (c *Controller[T]) SearchPending() bool { return c.search.Pending() }

func (c *Controller[T]) applySearch(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.params = c.params.WithSearch(q)
	c.mu.Unlock()
	if _, err := c.Evaluate(c.ctx); err != nil && c.onError != nil {
		c.onError(err)
	}
}

// SetParams replaces the params immediately and evaluates the gate.
func (c *Controller[T]) SetParams(ctx context.Context, p Params) (bool, error) {
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
	return c.Evaluate(ctx)
}

// Evaluate runs the gate and issues a replace when it fires. It reports
// whether a fetch was issued.
func (c *Controller[T]) Evaluate(ctx context.Context) (bool, error) {
	params := c.Params()
	d := Decide(c.gate, params, c.cache.Snapshot())
	if !d.Fire() {
		return false, nil
	}
	c.logger.Debug("list refetch", zap.String("resource", c.cache.Resource()), zap.Stringer("reason", d))
	return c.replace(ctx, params)
}

// Refresh issues a replace regardless of the gate, unless a fetch is running.
func (c *Controller[T]) Refresh(ctx context.Context) (bool, error) {
	return c.replace(ctx, c.Params())
}

func (c *Controller[T]) replace(ctx context.Context, params Params) (bool, error) {
	err := c.cache.Replace(ctx, params)
	switch {
	case errors.Is(err, ErrBusy):
		return false, nil
	case errors.Is(err, ErrStale):
		return true, nil
	case err != nil:
		return true, err
	}
	c.enrich()
	return true, c.catchUp(ctx, params)
}

// catchUp re-runs the gate when params moved on while the fetch for fetched
// was in flight. Changes that arrive during a fetch are held by the gate and
// would otherwise wait for the next tick.
func (c *Controller[T]) catchUp(ctx context.Context, fetched Params) error {
	if c.isClosed() || c.Params().Equal(fetched) {
		return nil
	}
	_, err := c.Evaluate(ctx)
	return err
}

func (c *Controller[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Tick re-evaluates the gate so stale lists refresh without input.
func (c *Controller[T]) Tick(ctx context.Context) (bool, error) {
	return c.Evaluate(ctx)
}

// Visible forwards sentinel visibility to the scroll trigger.
func (c *Controller[T]) Visible(ctx context.Context) (bool, error) {
	fired, err := c.scroll.Visible(ctx)
	if fired && err == nil {
		c.enrich()
		err = c.catchUp(ctx, c.cache.Snapshot().LastParams)
	}
	return fired, err
}

// ScrollActive reports whether infinite scroll still listens.
func (c *Controller[T]) ScrollActive() bool { return c.scroll.Active() }

func (c *Controller[T]) enrich() {
	if c.enricher == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		c.enricher.Run(c.ctx)
	}()
}

// Wait blocks until background enrichment passes finish.
func (c *Controller[T]) Wait() { c.wg.Wait() }

// Close stops pending search input, cancels background work and discards
// the cache state.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.search.Stop()
	c.cancel()
	c.cache.Reset()
	c.wg.Wait()
	if c.enricher != nil {
		c.enricher.Reset()
	}
}
