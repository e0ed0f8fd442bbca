package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client talks to fleetd over its Unix domain socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon socket. The connection is lazy: the first
// call reports an unreachable daemon.
func Dial(socketPath string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient("unix://"+socketPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Conn returns the underlying connection.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invokeStruct(ctx context.Context, method string, in any, v any) error {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return Decode(out, v)
}

func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	var st Status
	err := c.invokeStruct(ctx, fullMethod(SessionServiceName, "GetStatus"), &emptypb.Empty{}, &st)
	return st, err
}

func (c *Client) GetToken(ctx context.Context) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, fullMethod(SessionServiceName, "GetToken"), &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.conn.Invoke(ctx, fullMethod(SessionServiceName, "SetToken"), wrapperspb.String(token), &emptypb.Empty{})
}

func (c *Client) Logout(ctx context.Context) error {
	return c.conn.Invoke(ctx, fullMethod(SessionServiceName, "Logout"), &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *Client) feed(ctx context.Context, method string) (FeedStatus, error) {
	var fs FeedStatus
	err := c.invokeStruct(ctx, fullMethod(FeedServiceName, method), &emptypb.Empty{}, &fs)
	return fs, err
}

func (c *Client) GetFeedStatus(ctx context.Context) (FeedStatus, error) {
	return c.feed(ctx, "GetFeedStatus")
}

func (c *Client) StartFeed(ctx context.Context) (FeedStatus, error) {
	return c.feed(ctx, "StartFeed")
}

func (c *Client) StopFeed(ctx context.Context) (FeedStatus, error) {
	return c.feed(ctx, "StopFeed")
}

func (c *Client) ListUnread(ctx context.Context) (UnreadList, error) {
	var l UnreadList
	err := c.invokeStruct(ctx, fullMethod(UnreadServiceName, "ListUnread"), &emptypb.Empty{}, &l)
	return l, err
}

// WatchUnread calls fn for every counter the daemon sends until ctx is
// canceled or the stream ends. A clean end of stream returns nil.
func (c *Client) WatchUnread(ctx context.Context, fn func(UnreadItem)) error {
	return watch(ctx, c, &unreadServiceDesc.Streams[0], fullMethod(UnreadServiceName, "WatchUnread"), fn)
}

// WatchWrites calls fn for every write event the daemon sends until ctx is
// canceled or the stream ends.
func (c *Client) WatchWrites(ctx context.Context, fn func(WriteEvent)) error {
	return watch(ctx, c, &writeServiceDesc.Streams[0], fullMethod(WriteServiceName, "WatchWrites"), fn)
}

func watch[T any](ctx context.Context, c *Client, desc *grpc.StreamDesc, method string, fn func(T)) error {
	stream, err := c.conn.NewStream(ctx, desc, method)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := &structpb.Struct{}
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var item T
		if err := Decode(msg, &item); err != nil {
			return err
		}
		fn(item)
	}
}

func (c *Client) QueueWrite(ctx context.Context, req WriteRequest) (Write, error) {
	in, err := Encode(req)
	if err != nil {
		return Write{}, err
	}
	var w Write
	err = c.invokeStruct(ctx, fullMethod(WriteServiceName, "QueueWrite"), in, &w)
	return w, err
}

func (c *Client) ListWrites(ctx context.Context, limit int) ([]Write, error) {
	var l WriteList
	err := c.invokeStruct(ctx, fullMethod(WriteServiceName, "ListWrites"), wrapperspb.Int32(int32(limit)), &l)
	return l.Items, err
}
