package collection

import "time"

// StaleWindow is how long a list stays fresh without a parameter change.
const StaleWindow = 5 * time.Minute

// Gate decides whether a list needs a replace fetch.
type Gate struct {
	Clock      Clock
	StaleAfter time.Duration
}

// NewGate returns a gate with the default stale window.
func NewGate(clock Clock) Gate {
	if clock == nil {
		clock = SystemClock
	}
	return Gate{Clock: clock, StaleAfter: StaleWindow}
}

// Decision explains a gate verdict.
type Decision struct {
	ParamsChanged bool
	Stale         bool
	Loading       bool
}

// Fire reports whether a replace should be issued.
func (d Decision) Fire() bool {
	return (d.ParamsChanged || d.Stale) && !d.Loading
}

func (d Decision) String() string {
	switch {
	case d.Loading:
		return "loading"
	case d.ParamsChanged:
		return "params changed"
	case d.Stale:
		return "stale"
	}
	return "fresh"
}

// Decide evaluates params against the cache state. A list that was never
// fetched counts as changed.
func Decide[T any](g Gate, params Params, snap Snapshot[T]) Decision {
	window := g.StaleAfter
	if window <= 0 {
		window = StaleWindow
	}
	clock := g.Clock
	if clock == nil {
		clock = SystemClock
	}
	return Decision{
		ParamsChanged: !snap.Fetched || params.Fingerprint() != snap.LastParams.Fingerprint(),
		Stale:         !snap.LastFetched.IsZero() && clock.Now().Sub(snap.LastFetched) > window,
		Loading:       snap.Busy(),
	}
}

// ShouldFetch is Decide(...).Fire().
func ShouldFetch[T any](g Gate, params Params, snap Snapshot[T]) bool {
	return Decide(g, params, snap).Fire()
}
