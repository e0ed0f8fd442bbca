package rpc

import "time"

// Status is the daemon's view of a session.
type Status struct {
	Session       string     `json:"session"`
	State         string     `json:"state"`
	StateSince    time.Time  `json:"state_since"`
	StartedAt     time.Time  `json:"started_at"`
	HasToken      bool       `json:"has_token"`
	APIURL        string     `json:"api_url"`
	Feed          FeedStatus `json:"feed"`
	TotalUnread   int        `json:"total_unread"`
	PendingWrites int        `json:"pending_writes"`
}

// FeedStatus describes the realtime feed.
type FeedStatus struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
}

// UnreadItem is one unread counter.
type UnreadItem struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnreadList is the ListUnread response.
type UnreadList struct {
	Items []UnreadItem `json:"items"`
	Total int          `json:"total"`
}

// WriteRequest queues a point update.
type WriteRequest struct {
	OpID     string         `json:"op_id,omitempty"`
	Resource string         `json:"resource"`
	ItemID   string         `json:"item_id"`
	Method   string         `json:"method"`
	Patch    map[string]any `json:"patch,omitempty"`
}

// Write is a queued point update and its delivery state.
type Write struct {
	OpID      string    `json:"op_id"`
	Resource  string    `json:"resource"`
	ItemID    string    `json:"item_id"`
	Method    string    `json:"method"`
	Patch     string    `json:"patch"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WriteList is the ListWrites response.
type WriteList struct {
	Items []Write `json:"items"`
}

// Write event outcomes.
const (
	WriteQueued = "queued"
	WriteAcked  = "acked"
	WriteFailed = "failed"
)

// WriteEvent reports a change in a queued write. A failed event with
// Retrying set will be attempted again; without it the write is final.
type WriteEvent struct {
	Outcome  string    `json:"outcome"`
	OpID     string    `json:"op_id"`
	Resource string    `json:"resource"`
	ItemID   string    `json:"item_id"`
	Method   string    `json:"method"`
	Error    string    `json:"error,omitempty"`
	Retrying bool      `json:"retrying,omitempty"`
	At       time.Time `json:"at"`
}

// Final reports whether the write will not be attempted again.
func (e WriteEvent) Final() bool {
	return e.Outcome == WriteAcked || (e.Outcome == WriteFailed && !e.Retrying)
}
