package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const SessionServiceName = "fleetdesk.v1.SessionService"

// SessionServer reports daemon state and manages the API token.
type SessionServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetToken(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	SetToken(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func newEmpty() proto.Message  { return &emptypb.Empty{} }
func newString() proto.Message { return &wrapperspb.StringValue{} }
func newStruct() proto.Message { return &structpb.Struct{} }
func newInt32() proto.Message  { return &wrapperspb.Int32Value{} }

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(fullMethod(SessionServiceName, "GetStatus"), newEmpty,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(SessionServer).GetStatus(ctx, req.(*emptypb.Empty))
				}),
		},
		{
			MethodName: "GetToken",
			Handler: unaryHandler(fullMethod(SessionServiceName, "GetToken"), newEmpty,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(SessionServer).GetToken(ctx, req.(*emptypb.Empty))
				}),
		},
		{
			MethodName: "SetToken",
			Handler: unaryHandler(fullMethod(SessionServiceName, "SetToken"), newString,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(SessionServer).SetToken(ctx, req.(*wrapperspb.StringValue))
				}),
		},
		{
			MethodName: "Logout",
			Handler: unaryHandler(fullMethod(SessionServiceName, "Logout"), newEmpty,
				func(srv any, ctx context.Context, req proto.Message) (any, error) {
					return srv.(SessionServer).Logout(ctx, req.(*emptypb.Empty))
				}),
		},
	},
	Metadata: protoFile,
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}
