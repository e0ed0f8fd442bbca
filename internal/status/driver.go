package status

import (
	"context"

	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/realtime"
	"go.uber.org/zap"
)

// ForFeed maps a realtime feed state onto a daemon state. A stopped feed
// leaves REST usable, so it is Degraded unless no token is stored.
func ForFeed(s realtime.State, hasToken bool) State {
	switch s {
	case realtime.StateConnecting:
		return Connecting
	case realtime.StateConnected:
		return Ready
	case realtime.StateReconnecting:
		return Reconnecting
	case realtime.StateUnauthorized:
		return AuthRequired
	default:
		if !hasToken {
			return AuthRequired
		}
		return Degraded
	}
}

// Driver follows realtime.state events and moves the machine accordingly.
type Driver struct {
	machine  *Machine
	bus      *bus.Bus
	hasToken func() bool
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDriver creates a driver. hasToken reports whether a token is stored.
func NewDriver(m *Machine, b *bus.Bus, hasToken func() bool, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{machine: m, bus: b, hasToken: hasToken, logger: logger}
}

// Start subscribes to the bus.
func (d *Driver) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	ch, unsub := d.bus.Subscribe(bus.KindRealtimeState, 64)
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		defer unsub()
		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				sc, ok := evt.Payload.(realtime.StateChange)
				if !ok {
					continue
				}
				d.Apply(sc.State)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop unsubscribes and waits for the loop to exit.
func (d *Driver) Stop() {
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}
}

// Apply moves the machine to the state matching s. Transitions the machine
// does not allow are logged and skipped.
func (d *Driver) Apply(s realtime.State) {
	to := ForFeed(s, d.hasToken())
	if err := d.machine.Transition(to); err != nil {
		d.logger.Warn("status transition skipped",
			zap.String("feed_state", string(s)), zap.Error(err))
	}
}
