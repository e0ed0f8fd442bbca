package bus

import "time"

// Event kinds published inside fleetd. Subscribers filter by namespace prefix
// ("realtime.", "unread.", "write.", "daemon.").
const (
	KindStatusChanged  = "daemon.status_changed"
	KindRealtimeUnread = "realtime.unread"
	KindRealtimeState  = "realtime.state"
	// KindRealtimeSnapshot carries the full set of non-zero counters after (re)connect.
	KindRealtimeSnapshot = "realtime.unread_snapshot"
	KindUnreadChanged    = "unread.changed"
	KindWriteQueued      = "write.queued"
	KindWriteAck         = "write.ack"
	KindWriteFailed      = "write.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
