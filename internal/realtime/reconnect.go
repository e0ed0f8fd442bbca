package realtime

import (
	"math"
	"math/rand"
	"time"
)

// reconnector computes jittered exponential backoff delays. The attempt
// counter resets once a connection stayed up for stableAfter.
type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	stableAfter time.Duration
	attempt     int
	connectedAt time.Time
	now         func() time.Time
}

func newReconnector(base, max time.Duration) *reconnector {
	return &reconnector{
		baseDelay:   base,
		maxDelay:    max,
		stableAfter: 60 * time.Second,
		now:         time.Now,
	}
}

func (r *reconnector) markConnected() {
	r.connectedAt = r.now()
}

func (r *reconnector) nextDelay() time.Duration {
	if !r.connectedAt.IsZero() && r.now().Sub(r.connectedAt) > r.stableAfter {
		r.attempt = 0
	}
	r.connectedAt = time.Time{}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}
