package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const WriteServiceName = "fleetdesk.v1.WriteService"

// WriteServer queues point updates (seen/flag toggles, removals) for delivery.
type WriteServer interface {
	QueueWrite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWrites(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
	// WatchWrites sends a WriteEvent for every queued, delivered or failed
	// write until the client goes away.
	WatchWrites(*emptypb.Empty, WriteStream) error
}

// WriteStream is the server side of WatchWrites. Each message is a WriteEvent.
type WriteStream = StructStream

var writeServiceDesc = grpc.ServiceDesc{
	ServiceName: WriteServiceName,
	HandlerType: (*WriteServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "QueueWrite",
			Handler: unaryHandler(fullMethod(WriteServiceName, "QueueWrite"), newStruct,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(WriteServer).QueueWrite(ctx, req.(*structpb.Struct))
				}),
		},
		{
			MethodName: "ListWrites",
			Handler: unaryHandler(fullMethod(WriteServiceName, "ListWrites"), newInt32,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(WriteServer).ListWrites(ctx, req.(*wrapperspb.Int32Value))
				}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "WatchWrites",
			Handler: emptyStreamHandler(func(srv any, in *emptypb.Empty, stream StructStream) error {
				return srv.(WriteServer).WatchWrites(in, stream)
			}),
			ServerStreams: true,
		},
	},
	Metadata: protoFile,
}

// RegisterWriteServer registers srv on s.
func RegisterWriteServer(s grpc.ServiceRegistrar, srv WriteServer) {
	s.RegisterService(&writeServiceDesc, srv)
}
