// Package metrics holds the Prometheus collectors shared by fleetd and fleettui.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "list_fetch_total",
	Help:      "List fetches by resource, mode (replace/append) and outcome",
}, []string{"resource", "mode", "outcome"})

var FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "fleetdesk",
	Name:      "list_fetch_duration_seconds",
	Help:      "List fetch latency",
	Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
}, []string{"resource", "mode"})

var StaleResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "list_stale_responses_total",
	Help:      "Responses discarded because a newer generation superseded them",
}, []string{"resource"})

var EnrichTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "enrich_total",
	Help:      "Per-item enrichment results by outcome (ok, failed, memo)",
}, []string{"resource", "outcome"})

var BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "backend_requests_total",
	Help:      "REST requests by method and status class",
}, []string{"method", "class"})

var BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "fleetdesk",
	Name:      "backend_breaker_state",
	Help:      "Circuit breaker state per endpoint group: 0 closed, 1 half-open, 2 open",
}, []string{"breaker"})

var UnreadUpdates = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "unread_updates_total",
	Help:      "Unread counter changes ingested from the realtime feed",
})

var WritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fleetdesk",
	Name:      "writes_total",
	Help:      "Queued point updates by outcome",
}, []string{"outcome"})

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		FetchTotal, FetchDuration, StaleResponses, EnrichTotal,
		BackendRequests, BreakerState, UnreadUpdates, WritesTotal,
	}
}

// Register adds every fleetdesk collector to reg. Already-registered
// collectors are tolerated so Register may be called more than once.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Server exposes /metrics on addr.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds a metrics server for the given registry.
func NewServer(addr string, reg *prometheus.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server starting", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
