package collection

import "github.com/jonboulle/clockwork"

// Clock abstracts time so staleness and debounce can be tested.
type Clock = clockwork.Clock

// SystemClock is the wall clock.
var SystemClock Clock = clockwork.NewRealClock()
