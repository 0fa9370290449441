package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/broadcast"
)

func TestBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every subscriber", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string](4)
		defer b.Close()

		first := b.Subscribe(context.Background())
		second := b.Subscribe(context.Background())
		b.Broadcast("ready")

		assert.Equal(t, "ready", <-first.Receive())
		assert.Equal(t, "ready", <-second.Receive())
		assert.Equal(t, 2, b.Len())
	})

	t.Run("full buffer keeps latest value", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		b.Broadcast(1)
		b.Broadcast(2)
		b.Broadcast(3)

		assert.Equal(t, 3, <-sub.Receive())
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-sub.Receive()
		assert.False(t, ok)
	})

	t.Run("close ends subscriptions", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub := b.Subscribe(ctx)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		_, ok := <-sub.Receive()
		assert.False(t, ok)

		b.Broadcast(1)
		late := b.Subscribe(context.Background())
		_, ok = <-late.Receive()
		assert.False(t, ok)
	})

	t.Run("subscriber close is idempotent", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		b.Broadcast(1)
	})

	t.Run("closed subscriber is removed", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		forever := b.Subscribe(context.Background())
		scoped := b.Subscribe(ctx)
		kept := b.Subscribe(context.Background())
		require.Equal(t, 3, b.Len())

		require.NoError(t, forever.Close())
		require.NoError(t, scoped.Close())
		assert.Equal(t, 1, b.Len())

		b.Broadcast(7)
		assert.Equal(t, 7, <-kept.Receive())
		_, ok := <-forever.Receive()
		assert.False(t, ok)
	})
}
