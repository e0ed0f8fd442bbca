package status

import (
	"testing"

	"github.com/matheus3301/fleetdesk/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, AuthRequired},
		{Booting, Connecting},
		{Booting, Degraded},
		{Booting, Error},
		{AuthRequired, Connecting},
		{Connecting, Ready},
		{Ready, Reconnecting},
		{Reconnecting, Connecting},
		{Degraded, Ready},
		{Error, Booting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(BOOTING -> READY) should fail")
	}
	if m.Current() != Booting {
		t.Errorf("state = %s, want BOOTING", m.Current())
	}
}

func TestSelfTransitionIsNoop(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("daemon.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Booting); err != nil {
		t.Fatalf("self transition error = %v", err)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event %v for self transition", evt)
	default:
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("daemon.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(AuthRequired); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStatusChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != AuthRequired {
		t.Errorf("change = %v -> %v, want BOOTING -> AUTH_REQUIRED", change.From, change.To)
	}
}

// TestTokenThenFeedLifecycle covers a first run: no token, a token is set,
// the feed connects.
func TestTokenThenFeedLifecycle(t *testing.T) {
	m := NewMachine(nil)
	for _, s := range []State{AuthRequired, Connecting, Ready} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
}

// TestFeedDropCycle verifies READY -> RECONNECTING -> CONNECTING -> READY.
func TestFeedDropCycle(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	for _, s := range []State{Reconnecting, Connecting, Ready} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
}

// TestFeedDisabledIsDegraded covers a daemon without realtime_url: it never
// reaches READY through CONNECTING but may still lose its token.
func TestFeedDisabledIsDegraded(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Degraded); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(AuthRequired); err != nil {
		t.Fatalf("DEGRADED -> AUTH_REQUIRED: %v", err)
	}
	if err := m.Transition(Ready); err == nil {
		t.Error("AUTH_REQUIRED -> READY should fail")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(Ready, Degraded) {
		t.Error("READY -> DEGRADED should be allowed")
	}
	if CanTransition(Error, Ready) {
		t.Error("ERROR -> READY should not be allowed")
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:      {},
		AuthRequired: {AuthRequired},
		Connecting:   {Connecting},
		Ready:        {Connecting, Ready},
		Reconnecting: {Connecting, Ready, Reconnecting},
		Degraded:     {Degraded},
		Error:        {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
