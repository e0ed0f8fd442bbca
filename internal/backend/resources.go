package backend

import (
	"fmt"
	"strings"
	"time"
)

// Resource describes one paginated collection of the backend.
type Resource struct {
	Name string
	Path string
	Key  KeyFunc
}

var (
	Drivers   = Resource{Name: "drivers", Path: "/users", Key: UserKey}
	Documents = Resource{Name: "documents", Path: "/documents", Key: DocumentKey}
	Threads   = Resource{Name: "threads", Path: "/chat-threads", Key: ThreadKey}
)

// Resources lists every known resource.
var Resources = []Resource{Drivers, Documents, Threads}

// ResourceByName looks a resource up by name. "users" and "chat-threads" are
// accepted as aliases.
func ResourceByName(name string) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "drivers", "driver", "users":
		return Drivers, nil
	case "documents", "document", "docs":
		return Documents, nil
	case "threads", "thread", "chat-threads", "chats":
		return Threads, nil
	}
	return Resource{}, fmt.Errorf("unknown resource %q", name)
}

// Derived fields written by thread enrichment.
const (
	FieldLastMessage   = "lastMessage"
	FieldLastMessageAt = "lastMessageAt"
)

// Document triage flags, as sent in PATCH bodies.
const (
	FieldSeen    = "isSeen"
	FieldFlagged = "isFlagged"
)

// Driver is a typed view of a /users record.
type Driver struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Truck     string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// DriverFrom reads a Driver out of r.
func DriverFrom(r Record) Driver {
	d := Driver{
		ID:        UserKey(r),
		Name:      r.String("name", "fullName", "displayName"),
		Email:     r.String("email"),
		Phone:     r.String("phone", "phoneNumber"),
		Truck:     r.String("truckNumber", "truck", "unitNumber"),
		Role:      r.String("role", "userType"),
		Active:    true,
		CreatedAt: r.Time("createdAt", "created_at"),
	}
	if d.Name == "" {
		first, last := r.String("firstName"), r.String("lastName")
		d.Name = strings.TrimSpace(first + " " + last)
	}
	if r.Has("isActive") || r.Has("active") {
		d.Active = r.Bool("isActive", "active")
	}
	return d
}

// Document is a typed view of a /documents record.
type Document struct {
	ID         string
	Title      string
	Category   string
	Type       string
	DriverID   string
	DriverName string
	URL        string
	Seen       bool
	Flagged    bool
	CreatedAt  time.Time
}

// DocumentFrom reads a Document out of r.
func DocumentFrom(r Record) Document {
	doc := Document{
		ID:         DocumentKey(r),
		Title:      r.String("title", "name", "fileName"),
		Category:   r.String("category"),
		Type:       r.String("type", "documentType"),
		DriverID:   r.String("userId", "userid", "driverId", "uid"),
		DriverName: r.String("userName", "driverName"),
		URL:        r.String("url", "fileUrl", "downloadUrl"),
		Seen:       r.Bool("isSeen", "seen"),
		Flagged:    r.Bool("isFlagged", "flagged"),
		CreatedAt:  r.Time("createdAt", "uploadedAt", "date"),
	}
	if u := r.Object("user"); u != nil {
		if doc.DriverName == "" {
			doc.DriverName = u.String("name", "fullName")
		}
		if doc.DriverID == "" {
			doc.DriverID = UserKey(u)
		}
	}
	return doc
}

// Thread is a typed view of a /chat-threads record.
type Thread struct {
	ID            string
	Title         string
	DriverID      string
	LastMessage   string
	LastMessageAt time.Time
	// Enriched reports whether the derived last message fields are present.
	Enriched bool
}

// ThreadFrom reads a Thread out of r.
func ThreadFrom(r Record) Thread {
	t := Thread{
		ID:            ThreadKey(r),
		Title:         r.String("title", "name", "userName", "driverName"),
		DriverID:      r.String("userId", "userid", "contactId", "driverId"),
		LastMessage:   r.String(FieldLastMessage),
		LastMessageAt: r.Time(FieldLastMessageAt),
		Enriched:      r.Has(FieldLastMessage),
	}
	if t.Title == "" {
		if u := r.Object("user"); u != nil {
			t.Title = DriverFrom(u).Name
		}
	}
	if t.Title == "" {
		t.Title = t.ID
	}
	return t
}

// Message is a typed view of one chat message.
type Message struct {
	ID       string
	Text     string
	SenderID string
	SentAt   time.Time
}

// MessageFrom reads a Message out of r.
func MessageFrom(r Record) Message {
	return Message{
		ID:       r.String("_id", "id", "messageId"),
		Text:     r.String("text", "message", "content", "body"),
		SenderID: r.String("senderId", "from", "userId"),
		SentAt:   r.Time("createdAt", "timestamp", "sentAt"),
	}
}
