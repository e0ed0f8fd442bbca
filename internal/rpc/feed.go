package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const FeedServiceName = "fleetdesk.v1.FeedService"

// FeedServer controls the realtime feed. Every method returns a FeedStatus.
type FeedServer interface {
	GetFeedStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StartFeed(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StopFeed(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func feedMethod(name string, call func(FeedServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: unaryHandler(fullMethod(FeedServiceName, name), newEmpty,
			func(srv any, ctx context.Context, req proto.Message) (any, error) {
				return call(srv.(FeedServer), ctx, req.(*emptypb.Empty))
			}),
	}
}

var feedServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedServiceName,
	HandlerType: (*FeedServer)(nil),
	Methods: []grpc.MethodDesc{
		feedMethod("GetFeedStatus", FeedServer.GetFeedStatus),
		feedMethod("StartFeed", FeedServer.StartFeed),
		feedMethod("StopFeed", FeedServer.StopFeed),
	},
	Metadata: protoFile,
}

// RegisterFeedServer registers srv on s.
func RegisterFeedServer(s grpc.ServiceRegistrar, srv FeedServer) {
	s.RegisterService(&feedServiceDesc, srv)
}
