package api

import (
	"context"

	"github.com/matheus3301/fleetdesk/internal/realtime"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Feed is the part of realtime.Feed the services drive.
type Feed interface {
	Enabled() bool
	State() (realtime.State, string)
	Start(ctx context.Context) error
	Stop()
}

// FeedService implements rpc.FeedServer.
type FeedService struct {
	feed Feed
}

// NewFeedService creates a feed service.
func NewFeedService(feed Feed) *FeedService {
	return &FeedService{feed: feed}
}

func (s *FeedService) GetFeedStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(feedStatus(s.feed))
}

func (s *FeedService) StartFeed(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.feed == nil || !s.feed.Enabled() {
		return nil, grpcstatus.Error(codes.FailedPrecondition, "realtime url not configured")
	}
	// The feed outlives the request.
	if err := s.feed.Start(context.Background()); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "start feed: %v", err)
	}
	return encode(feedStatus(s.feed))
}

func (s *FeedService) StopFeed(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.feed != nil {
		s.feed.Stop()
	}
	return encode(feedStatus(s.feed))
}

func feedStatus(f Feed) rpc.FeedStatus {
	if f == nil {
		return rpc.FeedStatus{State: string(realtime.StateStopped)}
	}
	st, errMsg := f.State()
	return rpc.FeedStatus{Enabled: f.Enabled(), State: string(st), Error: errMsg}
}
