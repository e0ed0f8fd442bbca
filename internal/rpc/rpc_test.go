package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeServer struct {
	token  string
	writes []WriteRequest
	items  []UnreadItem
	events []WriteEvent
}

func (f *fakeServer) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return Encode(Status{Session: "default", State: "READY", HasToken: f.token != "", TotalUnread: 3})
}

func (f *fakeServer) GetToken(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	if f.token == "" {
		return nil, status.Error(codes.NotFound, "no token")
	}
	return wrapperspb.String(f.token), nil
}

func (f *fakeServer) SetToken(_ context.Context, v *wrapperspb.StringValue) (*emptypb.Empty, error) {
	f.token = v.GetValue()
	return &emptypb.Empty{}, nil
}

func (f *fakeServer) Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	f.token = ""
	return &emptypb.Empty{}, nil
}

func (f *fakeServer) GetFeedStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return Encode(FeedStatus{Enabled: true, State: "connected"})
}

func (f *fakeServer) StartFeed(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return Encode(FeedStatus{Enabled: true, State: "connecting"})
}

func (f *fakeServer) StopFeed(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return Encode(FeedStatus{Enabled: true, State: "stopped"})
}

func (f *fakeServer) ListUnread(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return Encode(UnreadList{Items: f.items, Total: 3})
}

func (f *fakeServer) WatchUnread(_ *emptypb.Empty, stream UnreadStream) error {
	for _, it := range f.items {
		msg, err := Encode(it)
		if err != nil {
			return err
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeServer) QueueWrite(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req WriteRequest
	if err := Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.writes = append(f.writes, req)
	return Encode(Write{OpID: "op-1", Resource: req.Resource, ItemID: req.ItemID, Method: req.Method, Status: "queued"})
}

func (f *fakeServer) ListWrites(_ context.Context, limit *wrapperspb.Int32Value) (*structpb.Struct, error) {
	out := WriteList{}
	for i, w := range f.writes {
		if int32(i) >= limit.GetValue() {
			break
		}
		out.Items = append(out.Items, Write{OpID: "op", Resource: w.Resource, ItemID: w.ItemID, Method: w.Method})
	}
	return Encode(out)
}

func (f *fakeServer) WatchWrites(_ *emptypb.Empty, stream WriteStream) error {
	for _, ev := range f.events {
		msg, err := Encode(ev)
		if err != nil {
			return err
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func startServer(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterSessionServer(s, srv)
	RegisterFeedServer(s, srv)
	RegisterUnreadServer(s, srv)
	RegisterWriteServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	c := NewClient(conn)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEncodeDecodeKeepsTimes(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	st, err := Encode(UnreadItem{Key: "t1", Count: 2, UpdatedAt: at})
	require.NoError(t, err)

	var got UnreadItem
	require.NoError(t, Decode(st, &got))
	assert.Equal(t, "t1", got.Key)
	assert.Equal(t, 2, got.Count)
	assert.True(t, at.Equal(got.UpdatedAt))
}

func TestSessionCalls(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv)
	ctx := testCtx(t)

	_, err := c.GetToken(ctx)
	assert.Equal(t, codes.NotFound, status.Code(err))

	require.NoError(t, c.SetToken(ctx, "secret"))
	tok, err := c.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", tok)

	st, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "READY", st.State)
	assert.True(t, st.HasToken)
	assert.Equal(t, 3, st.TotalUnread)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, srv.token)
}

func TestFeedCalls(t *testing.T) {
	c := startServer(t, &fakeServer{})
	ctx := testCtx(t)

	fs, err := c.StartFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "connecting", fs.State)

	fs, err = c.StopFeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stopped", fs.State)

	fs, err = c.GetFeedStatus(ctx)
	require.NoError(t, err)
	assert.True(t, fs.Enabled)
}

func TestUnreadListAndWatch(t *testing.T) {
	srv := &fakeServer{items: []UnreadItem{{Key: "a", Count: 1}, {Key: "b", Count: 2}}}
	c := startServer(t, srv)
	ctx := testCtx(t)

	l, err := c.ListUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Items, 2)
	assert.Equal(t, 3, l.Total)

	var got []UnreadItem
	require.NoError(t, c.WatchUnread(ctx, func(it UnreadItem) { got = append(got, it) }))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Key)
	assert.Equal(t, 2, got[1].Count)
}

func TestWrites(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv)
	ctx := testCtx(t)

	w, err := c.QueueWrite(ctx, WriteRequest{
		Resource: "documents", ItemID: "d1", Method: "PATCH",
		Patch: map[string]any{"seen": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "queued", w.Status)
	require.Len(t, srv.writes, 1)
	assert.Equal(t, true, srv.writes[0].Patch["seen"])

	_, err = c.QueueWrite(ctx, WriteRequest{Resource: "users", ItemID: "u1", Method: "DELETE"})
	require.NoError(t, err)

	items, err := c.ListWrites(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWatchWrites(t *testing.T) {
	srv := &fakeServer{events: []WriteEvent{
		{Outcome: WriteFailed, OpID: "op-1", ItemID: "d1", Error: "timeout", Retrying: true},
		{Outcome: WriteFailed, OpID: "op-1", ItemID: "d1", Error: "Document not found"},
	}}
	c := startServer(t, srv)

	var got []WriteEvent
	require.NoError(t, c.WatchWrites(testCtx(t), func(ev WriteEvent) { got = append(got, ev) }))
	require.Len(t, got, 2)
	assert.False(t, got[0].Final())
	assert.True(t, got[1].Final())
	assert.Equal(t, "Document not found", got[1].Error)
}
