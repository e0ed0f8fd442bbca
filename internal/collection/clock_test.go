package collection

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var testEpoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

// newFakeClock returns a fake clock. AfterFunc callbacks run once Advance
// reaches them, possibly on their own goroutine, so assertions on their
// effects use require.Eventually.
func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(testEpoch)
}
