package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/status"
	"github.com/matheus3301/fleetdesk/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SessionService implements rpc.SessionServer.
type SessionService struct {
	sessionName string
	apiURL      string
	startedAt   time.Time
	machine     *status.Machine
	db          *store.DB
	feed        Feed
	logger      *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(sessionName, apiURL string, machine *status.Machine, db *store.DB, feed Feed, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessionName: sessionName,
		apiURL:      apiURL,
		startedAt:   time.Now(),
		machine:     machine,
		db:          db,
		feed:        feed,
		logger:      logger,
	}
}

func (s *SessionService) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := rpc.Status{
		Session:    s.sessionName,
		State:      string(s.machine.Current()),
		StateSince: s.machine.Since(),
		StartedAt:  s.startedAt,
		APIURL:     s.apiURL,
		Feed:       feedStatus(s.feed),
	}
	if s.db != nil {
		_, err := s.db.Token(s.sessionName)
		st.HasToken = err == nil
		if n, err := s.db.TotalUnread(); err == nil {
			st.TotalUnread = n
		}
		if pending, err := s.db.PendingWrites(); err == nil {
			st.PendingWrites = len(pending)
		}
	}
	return encode(st)
}

func (s *SessionService) GetToken(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	tok, err := s.db.Token(s.sessionName)
	if errors.Is(err, store.ErrNoToken) {
		return nil, grpcstatus.Error(codes.NotFound, "no token stored")
	}
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "read token: %v", err)
	}
	return wrapperspb.String(tok), nil
}

// SetToken stores the token and (re)starts the realtime feed with it.
func (s *SessionService) SetToken(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	tok := strings.TrimSpace(req.GetValue())
	if tok == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "token must not be empty")
	}
	if err := s.db.SetToken(s.sessionName, tok); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "store token: %v", err)
	}
	s.logger.Info("api token updated")

	if s.feed == nil || !s.feed.Enabled() {
		s.transition(status.Degraded)
		return &emptypb.Empty{}, nil
	}
	s.feed.Stop()
	if err := s.feed.Start(context.Background()); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "start feed: %v", err)
	}
	return &emptypb.Empty{}, nil
}

// Logout forgets the token and stops the feed.
func (s *SessionService) Logout(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.db.ClearToken(s.sessionName); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "clear token: %v", err)
	}
	if s.feed != nil {
		s.feed.Stop()
	}
	s.transition(status.AuthRequired)
	s.logger.Info("logged out")
	return &emptypb.Empty{}, nil
}

func (s *SessionService) transition(to status.State) {
	if err := s.machine.Transition(to); err != nil {
		s.logger.Warn("status transition skipped", zap.Error(err))
	}
}

func encode(v any) (*structpb.Struct, error) {
	st, err := rpc.Encode(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return st, nil
}
