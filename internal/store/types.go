package store

// UnreadCount is the last known unread counter for one list key.
type UnreadCount struct {
	Key       string
	Count     int
	UpdatedAt int64
}

// Write statuses.
const (
	WriteQueued  = "queued"
	WriteSending = "sending"
	WriteSent    = "sent"
	WriteFailed  = "failed"
)

// PendingWrite is a point update queued for delivery to the backend.
type PendingWrite struct {
	ID           int64
	OpID         string
	Resource     string
	ItemID       string
	Method       string // PATCH or DELETE
	Patch        string // JSON object, "{}" for DELETE
	Status       string
	ErrorMessage string
	Attempts     int
	CreatedAt    int64
	UpdatedAt    int64
}
