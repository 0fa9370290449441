package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/statemachine"
)

const (
	idle    = statemachine.StringState("idle")
	loading = statemachine.StringState("loading")
	ready   = statemachine.StringState("ready")
	failed  = statemachine.StringState("failed")

	start  = statemachine.StringEvent("start")
	loaded = statemachine.StringEvent("loaded")
	fail   = statemachine.StringEvent("fail")
	stop   = statemachine.StringEvent("stop")
)

func TestStateMachine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("basic transitions", func(t *testing.T) {
		t.Parallel()

		sm := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, loading, start),
			statemachine.WithTransition(loading, ready, loaded),
		)
		assert.Equal(t, idle, sm.Current())
		assert.True(t, sm.CanFire(ctx, start, nil))
		assert.False(t, sm.CanFire(ctx, loaded, nil))

		require.NoError(t, sm.Fire(ctx, start, nil))
		require.NoError(t, sm.Fire(ctx, loaded, nil))
		assert.Equal(t, ready, sm.Current())

		require.NoError(t, sm.Reset())
		assert.Equal(t, idle, sm.Current())
	})

	t.Run("no transition available", func(t *testing.T) {
		t.Parallel()

		sm := statemachine.MustNew(idle, statemachine.WithTransition(idle, loading, start))
		err := sm.Fire(ctx, loaded, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Equal(t, idle, sm.Current())
	})

	t.Run("guards branch and reject", func(t *testing.T) {
		t.Parallel()

		wantGen := uint64(2)
		sameGen := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
			gen, ok := data.(uint64)
			return ok && gen == wantGen
		}

		sm := statemachine.MustNew(loading,
			statemachine.WithTransition(loading, ready, loaded, statemachine.WithGuard(sameGen)),
		)

		err := sm.Fire(ctx, loaded, uint64(1))
		require.Error(t, err)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.False(t, sm.CanFire(ctx, loaded, uint64(1)))
		assert.Equal(t, loading, sm.Current())

		require.NoError(t, sm.Fire(ctx, loaded, uint64(2)))
		assert.Equal(t, ready, sm.Current())
	})

	t.Run("action failure aborts transition", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		sm := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, loading, start,
				statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
					return boom
				}),
			),
		)
		err := sm.Fire(ctx, start, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, idle, sm.Current())
	})

	t.Run("transition from many states", func(t *testing.T) {
		t.Parallel()

		sm := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, loading, start),
			statemachine.WithTransition(loading, failed, fail),
			statemachine.WithTransitionFrom([]statemachine.State{idle, loading, ready, failed}, idle, stop),
		)
		require.NoError(t, sm.Fire(ctx, stop, nil))
		require.NoError(t, sm.Fire(ctx, start, nil))
		require.NoError(t, sm.Fire(ctx, fail, nil))
		require.NoError(t, sm.Fire(ctx, stop, nil))
		assert.Equal(t, idle, sm.Current())
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		_, err := statemachine.New(nil)
		assert.Error(t, err)

		_, err = statemachine.New(idle, statemachine.WithTransition(nil, ready, start))
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

		sm := statemachine.MustNew(idle)
		assert.ErrorIs(t, sm.Fire(ctx, nil, nil), statemachine.ErrInvalidEvent)
	})
}
