package api

import (
	"context"
	"strings"
	"time"

	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/outbox"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultWriteLimit = 50

// WriteService implements rpc.WriteServer.
type WriteService struct {
	db     *store.DB
	sender *outbox.Sender
	bus    *bus.Bus
}

// NewWriteService creates a write service. Write events are read from b.
func NewWriteService(db *store.DB, sender *outbox.Sender, b *bus.Bus) *WriteService {
	return &WriteService{db: db, sender: sender, bus: b}
}

func (s *WriteService) QueueWrite(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.WriteRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	}
	w, err := s.sender.Enqueue(req.OpID, req.Resource, req.ItemID, strings.ToUpper(req.Method), req.Patch)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "queue write: %v", err)
	}
	return encode(writeToRPC(*w))
}

func (s *WriteService) ListWrites(_ context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	limit := int(req.GetValue())
	if limit <= 0 {
		limit = defaultWriteLimit
	}
	writes, err := s.db.ListWrites(limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list writes: %v", err)
	}
	out := rpc.WriteList{Items: make([]rpc.Write, 0, len(writes))}
	for _, w := range writes {
		out.Items = append(out.Items, writeToRPC(w))
	}
	return encode(out)
}

// WatchWrites streams queue, delivery and failure events until the client
// goes away.
func (s *WriteService) WatchWrites(_ *emptypb.Empty, stream rpc.WriteStream) error {
	ch, unsub := s.bus.Subscribe("write.", 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			ev, ok := writeEventToRPC(evt)
			if !ok {
				continue
			}
			msg, err := encode(ev)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func writeEventToRPC(evt bus.Event) (rpc.WriteEvent, bool) {
	res, ok := evt.Payload.(outbox.Result)
	if !ok {
		return rpc.WriteEvent{}, false
	}
	ev := rpc.WriteEvent{
		OpID: res.OpID, Resource: res.Resource, ItemID: res.ItemID, Method: res.Method,
		Error: res.Error, Retrying: res.Retrying, At: evt.Timestamp,
	}
	switch evt.Kind {
	case bus.KindWriteQueued:
		ev.Outcome = rpc.WriteQueued
	case bus.KindWriteAck:
		ev.Outcome = rpc.WriteAcked
	case bus.KindWriteFailed:
		ev.Outcome = rpc.WriteFailed
	default:
		return rpc.WriteEvent{}, false
	}
	return ev, true
}

func writeToRPC(w store.PendingWrite) rpc.Write {
	return rpc.Write{
		OpID:      w.OpID,
		Resource:  w.Resource,
		ItemID:    w.ItemID,
		Method:    w.Method,
		Patch:     w.Patch,
		Status:    w.Status,
		Error:     w.ErrorMessage,
		Attempts:  w.Attempts,
		CreatedAt: time.UnixMilli(w.CreatedAt),
		UpdatedAt: time.UnixMilli(w.UpdatedAt),
	}
}
