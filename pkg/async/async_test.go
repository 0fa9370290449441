package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()

		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.True(t, f.IsComplete())
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		f := async.Async(context.Background(), "", func(context.Context, string) (string, error) {
			return "", boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context skips fn", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		f := async.Async(ctx, 1, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("await context", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		f := async.Async(context.Background(), 1, func(context.Context, int) (int, error) {
			<-release
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := f.AwaitContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, f.IsComplete())

		close(release)
		<-f.Done()
		v, err := f.AwaitContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()

		f := async.Async(context.Background(), 1, func(context.Context, int) (int, error) {
			time.Sleep(50 * time.Millisecond)
			return 1, nil
		})
		_, err := f.AwaitWithTimeout(time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
	})
}

func TestCompleted(t *testing.T) {
	t.Parallel()

	f := async.Completed("ready", nil)
	assert.True(t, f.IsComplete())
	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, "ready", v)
}
