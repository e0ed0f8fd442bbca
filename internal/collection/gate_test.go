package collection

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateNeverFetchedFires(t *testing.T) {
	g := NewGate(newFakeClock())
	d := Decide(g, Params{}, Snapshot[backend.Record]{})
	assert.True(t, d.ParamsChanged)
	assert.True(t, d.Fire())
}

func TestGateStalenessBoundary(t *testing.T) {
	clock := newFakeClock()
	fb := newFakeBackend()
	fb.set(1, false, "a")
	c := newRecordCache(fb, WithClock(clock))
	require.NoError(t, c.Replace(context.Background(), Params{}))
	g := NewGate(clock)

	tests := []struct {
		after time.Duration
		want  bool
	}{
		{0, false},
		{4*time.Minute + 59*time.Second, false},
		{5 * time.Minute, false},
		{5*time.Minute + time.Second, true},
	}
	start := clock.Now()
	for _, tt := range tests {
		clock.Advance(start.Add(tt.after).Sub(clock.Now()))
		assert.Equal(t, tt.want, ShouldFetch(g, Params{}, c.Snapshot()), "after %s", tt.after)
	}
}

func TestGateParamsCompareByValue(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(clock)
	last := Params{Filters: backend.Filters{Types: []string{"bol", "pod"}, IsSeen: backend.BoolPtr(false)}}
	snap := Snapshot[backend.Record]{Fetched: true, LastFetched: clock.Now(), LastParams: last}

	same := Params{Filters: backend.Filters{Types: append([]string{}, "bol", "pod"), IsSeen: backend.BoolPtr(false)}}
	assert.False(t, ShouldFetch(g, same, snap), "equal values with distinct backing arrays")

	reordered := Params{Filters: backend.Filters{Types: []string{"pod", "bol"}, IsSeen: backend.BoolPtr(false)}}
	assert.True(t, ShouldFetch(g, reordered, snap))

	flagged := same
	flagged.Filters.IsFlagged = backend.BoolPtr(true)
	assert.True(t, ShouldFetch(g, flagged, snap))

	searched := same.WithSearch("smith")
	assert.True(t, ShouldFetch(g, searched, snap))

	dated := same
	dated.Filters.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, ShouldFetch(g, dated, snap))
}

func TestGateHeldWhileLoading(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(clock)
	snap := Snapshot[backend.Record]{State: Replacing}
	d := Decide(g, Params{}.WithSearch("x"), snap)
	assert.True(t, d.ParamsChanged)
	assert.False(t, d.Fire())
	assert.Equal(t, "loading", d.String())

	snap.State = Appending
	assert.False(t, ShouldFetch(g, Params{}, snap))
}

func TestParamsWithSearch(t *testing.T) {
	assert.Nil(t, Params{}.WithSearch("   ").Search)
	assert.Equal(t, "abc", Params{}.WithSearch(" abc ").SearchText())
	assert.True(t, Params{}.WithSearch("a").Equal(Params{}.WithSearch("a")))
	assert.NotEqual(t, Params{}.Fingerprint(), Params{}.WithSearch("a").Fingerprint())
}
