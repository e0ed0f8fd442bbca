package collection

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/matheus3301/fleetdesk/internal/pool"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

const (
	// EnrichWorkers caps concurrent enrichment fetches.
	EnrichWorkers = 10
	// EnrichMemoSize bounds the memo of settled values.
	EnrichMemoSize = 1024
)

// EnrichSpec describes how one list derives a missing field.
type EnrichSpec[T, V any] struct {
	// Needs reports whether item lacks the derived field.
	Needs func(T) bool
	// Fetch loads the derived value for one item.
	Fetch func(context.Context, T) (V, error)
	// Apply writes v into item and returns the updated item.
	Apply func(T, V) T
	// Empty is written back when Fetch fails.
	Empty V
}

// Enricher fills a derived field with bounded concurrency. Each key is
// claimed before its request starts and is attempted at most once; failures
// settle with the empty value.
type Enricher[T, V any] struct {
	cache   *Cache[T]
	spec    EnrichSpec[T, V]
	workers int
	logger  *zap.Logger

	fetched  *xsync.MapOf[string, struct{}]
	inFlight *xsync.MapOf[string, struct{}]
	memo     *lru.Cache[string, V]

	wg sync.WaitGroup
}

// NewEnricher builds an enricher over cache. workers <= 0 means EnrichWorkers.
func NewEnricher[T, V any](cache *Cache[T], spec EnrichSpec[T, V], workers int, logger *zap.Logger) *Enricher[T, V] {
	if workers <= 0 {
		workers = EnrichWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	memo, _ := lru.New[string, V](EnrichMemoSize)
	return &Enricher[T, V]{
		cache:    cache,
		spec:     spec,
		workers:  workers,
		logger:   logger,
		fetched:  xsync.NewMapOf[string, struct{}](),
		inFlight: xsync.NewMapOf[string, struct{}](),
		memo:     memo,
	}
}

// Run enriches every eligible item currently in the cache and blocks until
// all claimed fetches settle. It returns the number of fetches issued.
func (e *Enricher[T, V]) Run(ctx context.Context) int {
	e.wg.Add(1)
	defer e.wg.Done()

	var claimed []T
	var keys []string
	resource := e.cache.Resource()
	for _, item := range e.cache.Snapshot().Items {
		if !e.spec.Needs(item) {
			continue
		}
		k := e.cache.Key(item)
		if k == "" {
			continue
		}
		if _, busy := e.inFlight.Load(k); busy {
			continue
		}
		if v, ok := e.memo.Get(k); ok {
			e.cache.UpdateItem(k, func(it T) T { return e.spec.Apply(it, v) })
			metrics.EnrichTotal.WithLabelValues(resource, "memo").Inc()
			continue
		}
		if _, loaded := e.fetched.LoadOrStore(k, struct{}{}); loaded {
			continue
		}
		e.inFlight.Store(k, struct{}{})
		claimed = append(claimed, item)
		keys = append(keys, k)
	}
	if len(claimed) == 0 {
		return 0
	}

	errs := pool.Each(ctx, e.workers, claimed, func(ctx context.Context, item T) error {
		k := e.cache.Key(item)
		v, err := e.spec.Fetch(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Debug("enrichment failed",
				zap.String("resource", resource), zap.String("key", k), zap.Error(err))
			metrics.EnrichTotal.WithLabelValues(resource, "failed").Inc()
			v = e.spec.Empty
		} else {
			metrics.EnrichTotal.WithLabelValues(resource, "ok").Inc()
		}
		e.settle(k, v)
		return nil
	})

	// Keys that never settled are either released, when canceled before or
	// during their fetch, so a later run may claim them again, or settled
	// with the empty value when Fetch panicked.
	for i, err := range errs {
		if err == nil {
			continue
		}
		if _, held := e.inFlight.Load(keys[i]); !held {
			continue
		}
		if ctx.Err() != nil {
			e.inFlight.Delete(keys[i])
			e.fetched.Delete(keys[i])
			continue
		}
		e.logger.Warn("enrichment panicked",
			zap.String("resource", resource), zap.String("key", keys[i]), zap.Error(err))
		metrics.EnrichTotal.WithLabelValues(resource, "failed").Inc()
		e.settle(keys[i], e.spec.Empty)
	}
	return len(claimed)
}

func (e *Enricher[T, V]) settle(k string, v V) {
	e.memo.Add(k, v)
	e.cache.UpdateItem(k, func(it T) T { return e.spec.Apply(it, v) })
	e.inFlight.Delete(k)
}

// Attempted reports whether key was ever claimed.
func (e *Enricher[T, V]) Attempted(key string) bool {
	_, ok := e.fetched.Load(key)
	return ok
}

// InFlight returns the number of keys currently being fetched.
func (e *Enricher[T, V]) InFlight() int { return e.inFlight.Size() }

// Reset waits for running passes and forgets every claim and memoized value.
func (e *Enricher[T, V]) Reset() {
	e.wg.Wait()
	e.fetched.Clear()
	e.inFlight.Clear()
	e.memo.Purge()
}
