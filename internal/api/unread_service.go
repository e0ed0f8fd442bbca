package api

import (
	"context"
	"time"

	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/store"
	intsync "github.com/matheus3301/fleetdesk/internal/sync"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// UnreadService implements rpc.UnreadServer.
type UnreadService struct {
	db  *store.DB
	bus *bus.Bus
}

// NewUnreadService creates an unread service backed by the store.
func NewUnreadService(db *store.DB, b *bus.Bus) *UnreadService {
	return &UnreadService{db: db, bus: b}
}

func (s *UnreadService) ListUnread(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	counts, err := s.db.ListUnread()
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list unread: %v", err)
	}
	out := rpc.UnreadList{Items: make([]rpc.UnreadItem, 0, len(counts))}
	for _, c := range counts {
		out.Items = append(out.Items, unreadToRPC(c))
		out.Total += c.Count
	}
	return encode(out)
}

// WatchUnread sends the stored counters, then every change until the
// client goes away. It subscribes before reading the store so no change
// between the two is lost.
func (s *UnreadService) WatchUnread(_ *emptypb.Empty, stream rpc.UnreadStream) error {
	ch, unsub := s.bus.Subscribe(bus.KindUnreadChanged, 256)
	defer unsub()

	counts, err := s.db.ListUnread()
	if err != nil {
		return grpcstatus.Errorf(codes.Internal, "list unread: %v", err)
	}
	for _, c := range counts {
		if err := send(stream, unreadToRPC(c)); err != nil {
			return err
		}
	}

	for {
		select {
		case evt := <-ch:
			change, ok := evt.Payload.(intsync.UnreadChange)
			if !ok {
				continue
			}
			item := rpc.UnreadItem{Key: change.Key, Count: change.Count, UpdatedAt: evt.Timestamp}
			if err := send(stream, item); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func send(stream rpc.UnreadStream, item rpc.UnreadItem) error {
	msg, err := encode(item)
	if err != nil {
		return err
	}
	return stream.Send(msg)
}

func unreadToRPC(c store.UnreadCount) rpc.UnreadItem {
	return rpc.UnreadItem{Key: c.Key, Count: c.Count, UpdatedAt: time.UnixMilli(c.UpdatedAt)}
}
