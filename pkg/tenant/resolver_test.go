package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

var errNetwork = errors.New("connection reset by peer")

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("resolves bound active tenant and caches it", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil).Once()

		cache := tenant.NewMemoryCache()
		r := tenant.NewResolver(dir, tenant.WithCache(cache))

		got, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)

		got, err = r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)

		assert.Equal(t, 1, cache.Len())
		dir.AssertExpectations(t)
	})

	t.Run("rejects malformed principal", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		r := tenant.NewResolver(dir)

		for _, id := range []string{"", " u1", "u1\n", "u 1", string(make([]byte, tenant.MaxIDLength+1))} {
			_, err := r.Resolve(ctx, id)
			assert.ErrorIs(t, err, tenant.ErrInvalidPrincipal, "id %q", id)
		}
		dir.AssertNotCalled(t, "FetchMemberships", mock.Anything, mock.Anything)
	})

	t.Run("no binding is not cached", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u4").Return([]string{}, nil)

		cache := tenant.NewMemoryCache()
		r := tenant.NewResolver(dir, tenant.WithCache(cache))

		for range 3 {
			_, err := r.Resolve(ctx, "u4")
			require.ErrorIs(t, err, tenant.ErrNoTenantAssigned)
		}

		assert.Equal(t, 0, cache.Len())
		dir.AssertNumberOfCalls(t, "FetchMemberships", 3)
		dir.AssertNotCalled(t, "FetchTenant", mock.Anything, mock.Anything)
	})

	t.Run("duplicate binding is surfaced", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1", "t2"}, nil).Once()
		r := tenant.NewResolver(dir, fastRetry())

		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrDuplicateBinding)
		assert.Equal(t, tenant.KindState, tenant.KindOf(err))
		dir.AssertExpectations(t)
	})

	t.Run("repeated binding to the same tenant is not a duplicate", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1", "t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil).Once()
		r := tenant.NewResolver(dir)

		got, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("missing tenant record", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"gone"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "gone").Return(nil, tenant.ErrTenantNotFound).Once()
		r := tenant.NewResolver(dir, fastRetry())

		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
		dir.AssertExpectations(t)
	})

	t.Run("nil tenant record is not found", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(nil, nil).Once()
		r := tenant.NewResolver(dir)

		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("inactive tenant requires opt-in", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(seededDirectory())

		_, err := r.Resolve(ctx, "u2")
		require.ErrorIs(t, err, tenant.ErrTenantInactive)
		_, err = r.Resolve(ctx, "u3")
		require.ErrorIs(t, err, tenant.ErrTenantInactive)

		got, err := r.Resolve(ctx, "u2", tenant.AllowInactive())
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusSuspended, got.Status)
	})

	t.Run("expired entry is refetched", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1"}, nil)
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil)

		clock := newFakeClock()
		cache := tenant.NewMemoryCache(tenant.WithClock(clock.Now), tenant.WithMaxAge(5*time.Minute))
		r := tenant.NewResolver(dir, tenant.WithCache(cache))

		_, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		clock.Advance(4 * time.Minute)
		_, err = r.Resolve(ctx, "u1")
		require.NoError(t, err)
		dir.AssertNumberOfCalls(t, "FetchMemberships", 1)

		clock.Advance(2 * time.Minute)
		_, err = r.Resolve(ctx, "u1")
		require.NoError(t, err)
		dir.AssertNumberOfCalls(t, "FetchMemberships", 2)
	})

	t.Run("returned tenant cannot mutate cache", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(seededDirectory())
		got, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		got.Status = tenant.StatusSuspended

		again, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusActive, again.Status)
	})
}

func TestResolver_Bootstrap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	demo := &tenant.Tenant{ID: "demo", Name: "Demo School", Status: tenant.StatusActive}

	t.Run("returned only when no binding exists", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		r := tenant.NewResolver(seededDirectory(), tenant.WithCache(cache))

		got, err := r.Resolve(ctx, "u4", tenant.WithBootstrap(demo))
		require.NoError(t, err)
		assert.Equal(t, "demo", got.ID)
		assert.True(t, got.Bootstrap)
		assert.False(t, demo.Bootstrap, "caller's record is not modified")
		assert.Equal(t, 0, cache.Len())

		got, err = r.Resolve(ctx, "u1", tenant.WithBootstrap(demo))
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
		assert.False(t, got.Bootstrap)
	})

	t.Run("not used for other failures", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(seededDirectory())
		_, err := r.Resolve(ctx, "u2", tenant.WithBootstrap(demo))
		require.ErrorIs(t, err, tenant.ErrTenantInactive)
	})
}

func TestResolver_SingleFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	dir := &MockDirectory{}
	dir.On("FetchMemberships", mock.Anything, "u1").
		Run(func(mock.Arguments) { <-release }).
		Return([]string{"t1"}, nil)
	dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil)

	r := tenant.NewResolver(dir)

	const callers = 25
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
		results = make(chan *tenant.Tenant, callers)
		errs    = make(chan error, callers)
	)
	for range callers {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			got, err := r.Resolve(context.Background(), "u1")
			if err != nil {
				errs <- err
				return
			}
			results <- got
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	seen := make(map[*tenant.Tenant]bool)
	for got := range results {
		assert.Equal(t, "t1", got.ID)
		assert.False(t, seen[got], "callers must not share a pointer")
		seen[got] = true
	}
	dir.AssertNumberOfCalls(t, "FetchMemberships", 1)
	dir.AssertNumberOfCalls(t, "FetchTenant", 1)
}

func TestResolver_Retry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("transient failure is retried", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return(nil, errNetwork).Twice()
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil).Once()

		r := tenant.NewResolver(dir, fastRetry())
		got, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
		dir.AssertNumberOfCalls(t, "FetchMemberships", 3)
	})

	t.Run("exhausted retries report resolution failure", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return(nil, errNetwork)

		r := tenant.NewResolver(dir, fastRetry())
		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrResolutionFailed)
		require.ErrorIs(t, err, errNetwork)
		assert.Equal(t, tenant.KindTransient, tenant.KindOf(err))
		dir.AssertNumberOfCalls(t, "FetchMemberships", 3)
	})

	t.Run("state errors are not retried", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t9"}, nil)
		dir.On("FetchTenant", mock.Anything, "t9").Return(nil, tenant.ErrTenantNotFound)

		r := tenant.NewResolver(dir, fastRetry())
		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
		assert.NotErrorIs(t, err, tenant.ErrResolutionFailed)
		dir.AssertNumberOfCalls(t, "FetchTenant", 1)
	})

	t.Run("zero retries", func(t *testing.T) {
		t.Parallel()

		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").Return(nil, errNetwork)

		r := tenant.NewResolver(dir, tenant.WithRetry(0, time.Millisecond, time.Millisecond))
		_, err := r.Resolve(ctx, "u1")
		require.ErrorIs(t, err, tenant.ErrResolutionFailed)
		dir.AssertNumberOfCalls(t, "FetchMemberships", 1)
	})
}

func TestResolver_Invalidation(t *testing.T) {
	t.Parallel()

	t.Run("invalidate forces refetch", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		dir := seededDirectory()
		r := tenant.NewResolver(dir)

		got, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)

		dir.AddTenant(*activeTenant("t5"))
		dir.Unbind("u1", "t1")
		dir.Bind("u1", "t5")

		got, err = r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID, "cached until invalidated")

		require.NoError(t, r.Invalidate(ctx, "u1"))
		got, err = r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t5", got.ID)
	})

	t.Run("fetch in flight during invalidate all is not cached", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		entered := make(chan struct{})
		release := make(chan struct{})
		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").
			Run(func(mock.Arguments) {
				close(entered)
				<-release
			}).
			Return([]string{"t1"}, nil).Once()
		dir.On("FetchMemberships", mock.Anything, "u1").Return([]string{"t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil)

		cache := tenant.NewMemoryCache()
		r := tenant.NewResolver(dir, tenant.WithCache(cache))

		done := make(chan error, 1)
		go func() {
			_, err := r.Resolve(ctx, "u1")
			done <- err
		}()

		<-entered
		before := r.Generation()
		require.NoError(t, r.InvalidateAll(ctx))
		assert.Greater(t, r.Generation(), before)
		close(release)
		require.NoError(t, <-done)

		assert.Equal(t, 0, cache.Len())

		_, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())
		dir.AssertNumberOfCalls(t, "FetchMemberships", 2)
	})

	t.Run("caller cancellation does not cancel shared fetch", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		release := make(chan struct{})
		dir := &MockDirectory{}
		dir.On("FetchMemberships", mock.Anything, "u1").
			Run(func(args mock.Arguments) {
				close(entered)
				<-release
			}).
			Return([]string{"t1"}, nil).Once()
		dir.On("FetchTenant", mock.Anything, "t1").Return(activeTenant("t1"), nil).Once()

		cache := tenant.NewMemoryCache()
		r := tenant.NewResolver(dir, tenant.WithCache(cache))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := r.Resolve(ctx, "u1")
			done <- err
		}()

		<-entered
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)

		close(release)
		require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)
		dir.AssertExpectations(t)
	})
}
