package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitEvent(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == kind {
				return evt
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func waitState(t *testing.T, ch <-chan bus.Event, want State) StateChange {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case evt := <-ch:
			if sc, ok := evt.Payload.(StateChange); ok && sc.State == want {
				return sc
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestFeedPublishesUnread(t *testing.T) {
	gotToken := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		ctx := r.Context()
		_ = conn.Write(ctx, websocket.MessageText, []byte(`not json`))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"unread","payload":{"threadId":"t1","count":3}}`))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"unread.snapshot","payload":{"counts":{"t2":-1}}}`))
		<-ctx.Done()
	}))
	defer srv.Close()

	b := bus.New()
	events, unsub := b.Subscribe("realtime.", 32)
	defer unsub()

	f := New(Config{URL: wsURL(srv), Tokens: staticTokens{token: "tok"}}, b)
	require.NoError(t, f.Start(context.Background()))
	defer f.Stop()

	assert.Equal(t, "tok", <-gotToken)
	evt := waitEvent(t, events, bus.KindRealtimeUnread)
	assert.Equal(t, Unread{Key: "t1", Count: 3}, evt.Payload)
	evt = waitEvent(t, events, bus.KindRealtimeSnapshot)
	assert.Equal(t, []Unread{{Key: "t2", Count: 0}}, evt.Payload)

	st, _ := f.State()
	assert.Equal(t, StateConnected, st)
}

func TestFeedReconnects(t *testing.T) {
	connects := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		connects <- struct{}{}
		_ = conn.Close(websocket.StatusGoingAway, "bye")
	}))
	defer srv.Close()

	b := bus.New()
	events, unsub := b.Subscribe(bus.KindRealtimeState, 64)
	defer unsub()

	f := New(Config{URL: wsURL(srv), Tokens: staticTokens{token: "tok"}, BaseDelay: 5 * time.Millisecond, MaxDelay: 20 * time.Millisecond}, b)
	require.NoError(t, f.Start(context.Background()))

	sc := waitState(t, events, StateReconnecting)
	assert.NotEmpty(t, sc.Err)
	for i := 0; i < 2; i++ {
		select {
		case <-connects:
		case <-time.After(3 * time.Second):
			t.Fatal("feed did not reconnect")
		}
	}

	f.Stop()
	st, _ := f.State()
	assert.Equal(t, StateStopped, st)
}

func TestFeedWithoutTokenIsUnauthorized(t *testing.T) {
	b := bus.New()
	events, unsub := b.Subscribe(bus.KindRealtimeState, 16)
	defer unsub()

	f := New(Config{URL: "ws://127.0.0.1:1/ws", Tokens: staticTokens{err: errors.New("no token")}, BaseDelay: time.Hour}, b)
	require.NoError(t, f.Start(context.Background()))
	defer f.Stop()

	sc := waitState(t, events, StateUnauthorized)
	assert.Contains(t, sc.Err, "no token")
}

func TestFeedRequiresURL(t *testing.T) {
	f := New(Config{}, bus.New())
	assert.False(t, f.Enabled())
	assert.Error(t, f.Start(context.Background()))
	f.Stop()
}

func TestParseUnread(t *testing.T) {
	u, ok := ParseUnread([]byte(`{"key":"k","unreadCount":"7"}`))
	require.True(t, ok)
	assert.Equal(t, Unread{Key: "k", Count: 7}, u)

	_, ok = ParseUnread([]byte(`{"count":1}`))
	assert.False(t, ok)
	_, ok = ParseUnread([]byte(`[]`))
	assert.False(t, ok)
}

func TestReconnectorBackoff(t *testing.T) {
	r := newReconnector(100*time.Millisecond, time.Second)
	d1 := r.nextDelay()
	d2 := r.nextDelay()
	assert.GreaterOrEqual(t, d1, 100*time.Millisecond)
	assert.Less(t, d1, 150*time.Millisecond)
	assert.GreaterOrEqual(t, d2, 200*time.Millisecond)
	for i := 0; i < 10; i++ {
		assert.LessOrEqual(t, r.nextDelay(), time.Second)
	}

	now := time.Now()
	r.now = func() time.Time { return now }
	r.markConnected()
	now = now.Add(2 * time.Minute)
	assert.Less(t, r.nextDelay(), 150*time.Millisecond, "a stable connection resets the attempt counter")
}
