package collection

import (
	"context"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
)

// TokenFunc returns the current bearer token.
type TokenFunc func(ctx context.Context) (string, error)

// Lister is the list call of *backend.Client.
type Lister interface {
	List(ctx context.Context, token, path string, q backend.Query) (backend.Page[backend.Record], error)
}

// MessageSource is the latest-message call of *backend.Client.
type MessageSource interface {
	LatestMessage(ctx context.Context, token, threadID string) (backend.Message, bool, error)
}

// RecordFetcher adapts a backend list endpoint to a Fetcher. The token is
// looked up for every request.
func RecordFetcher(l Lister, token TokenFunc, path string) Fetcher[backend.Record] {
	return func(ctx context.Context, q backend.Query) (backend.Page[backend.Record], error) {
		tok, err := token(ctx)
		if err != nil {
			return backend.Page[backend.Record]{}, err
		}
		return l.List(ctx, tok, path, q)
	}
}

// NewRecordCache creates a cache for a backend resource.
func NewRecordCache(l Lister, token TokenFunc, res backend.Resource, opts ...Option) *Cache[backend.Record] {
	opts = append([]Option{WithResource(res.Name)}, opts...)
	return New[backend.Record](RecordFetcher(l, token, res.Path), res.Key, opts...)
}

// LastMessageSpec derives lastMessage/lastMessageAt for chat threads. A
// thread without messages settles with the empty message.
func LastMessageSpec(src MessageSource, token TokenFunc) EnrichSpec[backend.Record, backend.Message] {
	return EnrichSpec[backend.Record, backend.Message]{
		Needs: func(r backend.Record) bool { return !r.Has(backend.FieldLastMessage) },
		Fetch: func(ctx context.Context, r backend.Record) (backend.Message, error) {
			tok, err := token(ctx)
			if err != nil {
				return backend.Message{}, err
			}
			msg, _, err := src.LatestMessage(ctx, tok, backend.ThreadKey(r))
			return msg, err
		},
		Apply: func(r backend.Record, m backend.Message) backend.Record {
			out := r.With(backend.FieldLastMessage, m.Text)
			if m.SentAt.IsZero() {
				out[backend.FieldLastMessageAt] = nil
			} else {
				out[backend.FieldLastMessageAt] = m.SentAt.UTC().Format(time.RFC3339)
			}
			return out
		},
	}
}
