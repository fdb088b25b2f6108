package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/enrollhub/twofa/pkg/async"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("preserves input order", func(t *testing.T) {
		t.Parallel()
		items := []int{5, 1, 4, 2, 3}
		got, err := async.Map(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{50, 10, 40, 20, 30}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		got, err := async.Map(context.Background(), []string{}, 2, func(_ context.Context, s string) (string, error) {
			return s, nil
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("returns first error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		got, err := async.Map(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return n, nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})

	t.Run("respects worker limit", func(t *testing.T) {
		t.Parallel()
		var running, peak atomic.Int32
		_, err := async.Map(context.Background(), make([]int, 12), 3, func(_ context.Context, _ int) (int, error) {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return 0, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := async.Map(ctx, []int{1, 2}, 1, func(_ context.Context, n int) (int, error) {
			return n, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
