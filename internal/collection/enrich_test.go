package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	mu       sync.Mutex
	attempts map[string]int
	fail     map[string]bool
	delay    time.Duration
	running  atomic.Int32
	peak     atomic.Int32
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{attempts: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeMessages) LatestMessage(_ context.Context, token, threadID string) (backend.Message, bool, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.attempts[threadID]++
	fail := f.fail[threadID]
	f.mu.Unlock()
	if token != "tok" {
		return backend.Message{}, false, errors.New("bad token")
	}
	if fail {
		return backend.Message{}, false, errors.New("thread not found")
	}
	return backend.Message{Text: "hello " + threadID, SentAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}, true, nil
}

func (f *fakeMessages) attemptsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

func staticToken(context.Context) (string, error) { return "tok", nil }

func threadCache(t *testing.T, fb *fakeBackend) *Cache[backend.Record] {
	t.Helper()
	c := New[backend.Record](fb.fetch, backend.ThreadKey, WithResource("threads"))
	require.NoError(t, c.Replace(context.Background(), Params{}))
	return c
}

func TestEnricherFillsLastMessage(t *testing.T) {
	fb := newFakeBackend()
	fb.set(1, false, "t1", "t2")
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), 0, nil)

	assert.Equal(t, 2, e.Run(context.Background()))

	t1, _ := c.Get("t1")
	th := backend.ThreadFrom(t1)
	assert.True(t, th.Enriched)
	assert.Equal(t, "hello t1", th.LastMessage)
	assert.Equal(t, 2024, th.LastMessageAt.Year())
	assert.Zero(t, e.InFlight())
}

func TestEnricherAtMostOncePerID(t *testing.T) {
	fb := newFakeBackend()
	fb.set(1, false, "t1", "t2", "t3")
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	msgs.fail["t2"] = true
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), 0, nil)
	ctx := context.Background()

	e.Run(ctx)
	t2, _ := c.Get("t2")
	assert.Equal(t, "", t2.String(backend.FieldLastMessage), "failure settles with the empty value")
	assert.True(t, t2.Has(backend.FieldLastMessage))
	t3, _ := c.Get("t3")
	assert.Equal(t, "hello t3", t3.String(backend.FieldLastMessage), "one failure does not abort the others")

	// The list re-renders from a fresh page that lacks the derived field.
	require.NoError(t, c.Replace(ctx, Params{}.WithSearch("t")))
	assert.Zero(t, e.Run(ctx))
	assert.Zero(t, e.Run(ctx))

	assert.Equal(t, 1, msgs.attemptsFor("t2"))
	assert.Equal(t, 1, msgs.attemptsFor("t1"))
	t1, _ := c.Get("t1")
	assert.Equal(t, "hello t1", t1.String(backend.FieldLastMessage), "memoized value re-applied")
	assert.True(t, e.Attempted("t2"))
}

func TestEnricherBoundsConcurrency(t *testing.T) {
	ids := make([]string, 35)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%02d", i)
	}
	fb := newFakeBackend()
	fb.set(1, false, ids...)
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	msgs.delay = 5 * time.Millisecond
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), EnrichWorkers, nil)

	assert.Equal(t, len(ids), e.Run(context.Background()))
	assert.LessOrEqual(t, msgs.peak.Load(), int32(EnrichWorkers))
	for _, id := range ids {
		assert.Equal(t, 1, msgs.attemptsFor(id))
	}
}

func TestEnricherSkipsItemsWithField(t *testing.T) {
	fetch := func(context.Context, backend.Query) (backend.Page[backend.Record], error) {
		return backend.Page[backend.Record]{Items: []backend.Record{
			{"_id": "t1", backend.FieldLastMessage: "already here"},
			{"_id": "t2"},
		}, Page: 1}, nil
	}
	c := New[backend.Record](fetch, backend.ThreadKey)
	require.NoError(t, c.Replace(context.Background(), Params{}))
	msgs := newFakeMessages()
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), 0, nil)

	assert.Equal(t, 1, e.Run(context.Background()))
	assert.Zero(t, msgs.attemptsFor("t1"))
}

func TestEnricherCanceledRunReleasesClaims(t *testing.T) {
	fb := newFakeBackend()
	fb.set(1, false, "t1")
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Run(ctx)
	assert.False(t, e.Attempted("t1"))
	assert.Zero(t, e.InFlight())

	assert.Equal(t, 1, e.Run(context.Background()))
}

func TestEnricherReset(t *testing.T) {
	fb := newFakeBackend()
	fb.set(1, false, "t1")
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	e := NewEnricher(c, LastMessageSpec(msgs, staticToken), 0, nil)
	e.Run(context.Background())

	e.Reset()
	require.NoError(t, c.Replace(context.Background(), Params{}.WithSearch("again")))
	assert.Equal(t, 1, e.Run(context.Background()))
	assert.Equal(t, 2, msgs.attemptsFor("t1"))
}

func TestEnricherSettlesPanickingFetch(t *testing.T) {
	fb := newFakeBackend()
	fb.set(1, false, "t1", "t2")
	c := threadCache(t, fb)
	msgs := newFakeMessages()
	spec := LastMessageSpec(msgs, staticToken)
	fetch := spec.Fetch
	spec.Fetch = func(ctx context.Context, r backend.Record) (backend.Message, error) {
		if backend.ThreadKey(r) == "t2" {
			panic("decoder blew up")
		}
		return fetch(ctx, r)
	}
	e := NewEnricher(c, spec, 2, nil)

	assert.Equal(t, 2, e.Run(context.Background()))
	assert.Zero(t, e.InFlight())

	t2, ok := c.Get("t2")
	require.True(t, ok)
	assert.True(t, t2.Has(backend.FieldLastMessage))
	assert.Equal(t, "", t2.String(backend.FieldLastMessage))
	assert.Zero(t, e.Run(context.Background()), "settled items are not retried")
}

func TestFailingMessagesDoNotBlockListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/messages") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"threads":[{"_id":"t1"},{"_id":"t2"},{"_id":"t3"},{"_id":"t4"},{"_id":"t5"},{"_id":"t6"}],"pagination":{"page":1,"limit":20,"hasMore":true}}`)
	}))
	defer srv.Close()

	client := backend.New(srv.URL)
	c := NewRecordCache(client, staticToken, backend.Threads)
	ctx := context.Background()
	require.NoError(t, c.Replace(ctx, Params{}))

	e := NewEnricher(c, LastMessageSpec(client, staticToken), 0, nil)
	assert.Equal(t, 6, e.Run(ctx))
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState("messages"))

	require.NoError(t, c.Append(ctx))
	require.NoError(t, c.Replace(ctx, Params{}))
	assert.Equal(t, Idle, c.Snapshot().State)
	assert.NoError(t, c.Snapshot().Err)
}
