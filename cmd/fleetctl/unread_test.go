package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

// fakeWatch sends items until ctx is canceled and reports how many it sent.
func fakeWatch(items []rpc.UnreadItem, sent *int) func(context.Context, func(rpc.UnreadItem)) error {
	return func(ctx context.Context, fn func(rpc.UnreadItem)) error {
		for _, it := range items {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			*sent++
			fn(it)
		}
		return nil
	}
}

func TestStreamUnreadReturnsWriteError(t *testing.T) {
	items := []rpc.UnreadItem{{Key: "t1", Count: 1}, {Key: "t2", Count: 2}, {Key: "t3", Count: 3}}
	sent := 0
	err := streamUnread(context.Background(), fakeWatch(items, &sent), func(it rpc.UnreadItem) error {
		return printUnread(brokenWriter{}, true, it)
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "broken pipe")
	assert.Equal(t, 1, sent, "the stream stops after the first failed write")
}

func TestStreamUnreadPrintsEveryItem(t *testing.T) {
	items := []rpc.UnreadItem{{Key: "t1", Count: 1}, {Key: "t2", Count: 12}}
	sent := 0
	var buf bytes.Buffer
	err := streamUnread(context.Background(), fakeWatch(items, &sent), func(it rpc.UnreadItem) error {
		return printUnread(&buf, false, it)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Contains(t, buf.String(), "t2")
	assert.Contains(t, buf.String(), "12\n")
}
