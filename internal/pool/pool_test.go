package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	res := Map(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(7-n) * time.Millisecond)
		return n * n, nil
	})
	require.Len(t, res, len(items))
	for i, r := range res {
		assert.Equal(t, i, r.Index)
		assert.NoError(t, r.Err)
		assert.Equal(t, items[i]*items[i], r.Value)
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 40)
	Map(context.Background(), 10, items, func(context.Context, int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	})
	assert.LessOrEqual(t, peak.Load(), int32(10))
	assert.Positive(t, peak.Load())
}

func TestMapSettlesIndependently(t *testing.T) {
	boom := errors.New("boom")
	res := Map(context.Background(), 2, []string{"ok", "fail", "panic", "ok"}, func(_ context.Context, s string) (string, error) {
		switch s {
		case "fail":
			return "", boom
		case "panic":
			panic("kaboom")
		}
		return s + "!", nil
	})
	assert.Equal(t, "ok!", res[0].Value)
	assert.ErrorIs(t, res[1].Err, boom)
	assert.ErrorContains(t, res[2].Err, "kaboom")
	assert.Equal(t, "ok!", res[3].Value)
	assert.NoError(t, res[3].Err)
}

func TestMapCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	res := Map(ctx, 4, []int{1, 2, 3}, func(context.Context, int) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	assert.Zero(t, calls.Load())
	for _, r := range res {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestEachEmpty(t *testing.T) {
	assert.Empty(t, Each(context.Background(), 10, []string(nil), func(context.Context, string) error { return nil }))
}

func TestMapCancelMidwaySettlesRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := Map(ctx, 1, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			cancel()
		}
		return n, nil
	})
	assert.Equal(t, 1, res[0].Value)
	assert.NoError(t, res[1].Err, "an item already running finishes")
	assert.ErrorIs(t, res[2].Err, context.Canceled)
	assert.ErrorIs(t, res[3].Err, context.Canceled)
}
