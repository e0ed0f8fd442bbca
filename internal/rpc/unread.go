package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const UnreadServiceName = "fleetdesk.v1.UnreadService"

// UnreadServer exposes the per-thread unread counters.
type UnreadServer interface {
	ListUnread(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// WatchUnread sends every stored counter once, then each change.
	WatchUnread(*emptypb.Empty, UnreadStream) error
}

// StructStream is the server side of a server-streaming call whose
// messages are encoded structs.
type StructStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

// UnreadStream is the server side of WatchUnread. Each message is an UnreadItem.
type UnreadStream = StructStream

type structStream struct {
	grpc.ServerStream
}

func (s *structStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

// emptyStreamHandler adapts a handler that takes an Empty request and a
// StructStream.
func emptyStreamHandler(call func(srv any, in *emptypb.Empty, stream StructStream) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(emptypb.Empty)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv, in, &structStream{stream})
	}
}

var unreadServiceDesc = grpc.ServiceDesc{
	ServiceName: UnreadServiceName,
	HandlerType: (*UnreadServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListUnread",
			Handler: unaryHandler(fullMethod(UnreadServiceName, "ListUnread"), newEmpty,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(UnreadServer).ListUnread(ctx, req.(*emptypb.Empty))
				}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "WatchUnread",
			Handler: emptyStreamHandler(func(srv any, in *emptypb.Empty, stream StructStream) error {
				return srv.(UnreadServer).WatchUnread(in, stream)
			}),
			ServerStreams: true,
		},
	},
	Metadata: protoFile,
}

// RegisterUnreadServer registers srv on s.
func RegisterUnreadServer(s grpc.ServiceRegistrar, srv UnreadServer) {
	s.RegisterService(&unreadServiceDesc, srv)
}
