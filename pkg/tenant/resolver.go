package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
)

// Resolver finds the tenant a principal belongs to.
//
// Concurrent cold lookups for the same principal share one directory fetch.
// Invalidate and InvalidateAll advance a generation counter: a fetch that
// started before the bump still answers its waiters but never writes to the
// cache, and later callers start a fresh fetch instead of joining it.
type Resolver struct {
	directory Directory
	cache     Cache
	logger    *slog.Logger
	backoff   func() retry.Backoff
	group     singleflight.Group

	mu  sync.Mutex
	gen uint64
}

// NewResolver creates a resolver backed by directory. Without WithCache it
// uses a MemoryCache with default settings.
func NewResolver(directory Directory, opts ...ResolverOption) *Resolver {
	if directory == nil {
		panic("tenant: resolver requires a directory")
	}

	r := &Resolver{
		directory: directory,
		logger:    logger.Discard(),
	}
	WithRetry(DefaultResolveRetries, DefaultResolveBackoff, DefaultResolveMaxBackoff)(r)
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	r.logger = r.logger.With(logger.Component("tenant.resolver"))
	return r
}

// Resolve returns the active tenant bound to the principal.
//
// Errors: ErrInvalidPrincipal, ErrNoTenantAssigned, ErrDuplicateBinding,
// ErrTenantNotFound, ErrTenantInactive (unless AllowInactive) and
// ErrResolutionFailed once retries are exhausted. A cancelled ctx releases
// the caller without cancelling the shared fetch.
func (r *Resolver) Resolve(ctx context.Context, principalID string, opts ...ResolveOption) (*Tenant, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkID(principalID); err != nil {
		return nil, errors.Join(ErrInvalidPrincipal, err)
	}

	t, err := r.lookup(ctx, principalID)
	if err != nil {
		if o.bootstrap != nil && errors.Is(err, ErrNoTenantAssigned) {
			b := o.bootstrap.Clone()
			b.Bootstrap = true
			r.logger.WarnContext(ctx, "principal has no tenant binding, returning requested bootstrap tenant",
				logger.PrincipalID(principalID),
				logger.TenantID(b.ID),
			)
			return b, nil
		}
		return nil, err
	}

	if !t.IsActive() && !o.allowInactive {
		return nil, errors.Join(ErrTenantInactive, fmt.Errorf("tenant %s is %s", t.ID, t.Status))
	}
	return t, nil
}

// Invalidate drops the cached tenant for one principal, for example after a
// tenant reassignment.
func (r *Resolver) Invalidate(ctx context.Context, principalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	return r.cache.Invalidate(ctx, principalID)
}

// InvalidateAll drops every cached tenant. Call it synchronously on sign-out.
func (r *Resolver) InvalidateAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	return r.cache.InvalidateAll(ctx)
}

// Generation returns the invalidation counter.
func (r *Resolver) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// lookup returns the principal's bound tenant regardless of status.
func (r *Resolver) lookup(ctx context.Context, principalID string) (*Tenant, error) {
	if t, ok := r.cache.Get(ctx, principalID); ok {
		return t, nil
	}

	gen := r.Generation()
	key := strconv.FormatUint(gen, 10) + "/" + principalID
	ch := r.group.DoChan(key, func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx), principalID, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Tenant).Clone(), nil
	}
}

func (r *Resolver) fetch(ctx context.Context, principalID string, gen uint64) (*Tenant, error) {
	attempts := 0
	t, err := retry.DoValue(ctx, r.backoff(), func(ctx context.Context) (*Tenant, error) {
		attempts++
		t, err := r.fetchOnce(ctx, principalID)
		if err != nil && !isStateError(err) {
			r.logger.DebugContext(ctx, "tenant fetch attempt failed",
				logger.PrincipalID(principalID),
				logger.RetryCount(attempts-1),
				logger.Error(err),
			)
			return nil, retry.RetryableError(err)
		}
		return t, err
	})
	if err != nil {
		if isStateError(err) {
			return nil, err
		}
		r.logger.ErrorContext(ctx, "tenant resolution failed",
			logger.PrincipalID(principalID),
			logger.RetryCount(attempts-1),
			logger.Error(err),
		)
		return nil, errors.Join(ErrResolutionFailed, err)
	}

	r.store(ctx, principalID, t, gen)
	return t, nil
}

func (r *Resolver) fetchOnce(ctx context.Context, principalID string) (*Tenant, error) {
	ids, err := r.directory.FetchMemberships(ctx, principalID)
	if err != nil {
		return nil, err
	}

	ids = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == "" })
	slices.Sort(ids)
	ids = slices.Compact(ids)

	switch len(ids) {
	case 0:
		return nil, ErrNoTenantAssigned
	case 1:
	default:
		return nil, errors.Join(ErrDuplicateBinding,
			fmt.Errorf("principal %s is bound to %s", principalID, strings.Join(ids, ", ")))
	}

	t, err := r.directory.FetchTenant(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTenantNotFound
	}
	return t.Clone(), nil
}

func (r *Resolver) store(ctx context.Context, principalID string, t *Tenant, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		r.logger.DebugContext(ctx, "discarding tenant resolved before invalidation",
			logger.PrincipalID(principalID),
			logger.Generation(gen),
		)
		return
	}
	r.cache.Put(ctx, principalID, t)
}
