package tenancy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/async"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/broadcast"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/guard"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/redis"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/scope"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// Service wires the resolver, validator, scoper and race guard around one
// directory and one store.
type Service struct {
	cfg       Config
	cache     tenant.Cache
	resolver  *tenant.Resolver
	validator *tenant.Validator
	scoper    *scope.Scoper
	guard     *guard.Guard
	redis     goredis.UniversalClient
	logger    *slog.Logger
}

type options struct {
	cache       tenant.Cache
	logger      *slog.Logger
	now         func() time.Time
	redis       goredis.UniversalClient
	resolveOpts []tenant.ResolveOption
}

// Option configures a Service.
type Option func(*options)

// WithCache replaces the cache selected by Config.CacheBackend.
func WithCache(c tenant.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now for cache staleness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRedis enables the redis cache backend and cross-process invalidation.
func WithRedis(client goredis.UniversalClient) Option {
	return func(o *options) {
		o.redis = client
	}
}

// WithGuardResolveOptions applies opts to every resolution the guard starts,
// for example tenant.WithBootstrap during onboarding.
func WithGuardResolveOptions(opts ...tenant.ResolveOption) Option {
	return func(o *options) {
		o.resolveOpts = append(o.resolveOpts, opts...)
	}
}

// New builds a Service. directory and store are required.
func New(cfg Config, directory tenant.Directory, store scope.Store, opts ...Option) (*Service, error) {
	o := &options{
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	c := o.cache
	if c == nil {
		var err error
		if c, err = newCache(cfg, o); err != nil {
			return nil, err
		}
	}

	resolver := tenant.NewResolver(directory,
		tenant.WithCache(c),
		tenant.WithRetry(cfg.ResolveRetries, cfg.ResolveBackoff, cfg.ResolveMaxBackoff),
		tenant.WithResolverLogger(o.logger),
	)

	validatorOpts := []tenant.ValidatorOption{tenant.WithValidatorLogger(o.logger)}
	if cfg.StrictMembership {
		validatorOpts = append(validatorOpts, tenant.WithStrictMembership())
	}
	validator := tenant.NewValidator(resolver, validatorOpts...)

	scoper := scope.New(validator, store,
		scope.WithTenantColumn(cfg.TenantColumn),
		scope.WithLogger(o.logger),
	)

	g := guard.New(resolver,
		guard.WithLogger(o.logger),
		guard.WithResolveOptions(o.resolveOpts...),
	)

	return &Service{
		cfg:       cfg,
		cache:     c,
		resolver:  resolver,
		validator: validator,
		scoper:    scoper,
		guard:     g,
		redis:     o.redis,
		logger:    o.logger.With(logger.Component("tenancy")),
	}, nil
}

func newCache(cfg Config, o *options) (tenant.Cache, error) {
	switch strings.ToLower(cfg.CacheBackend) {
	case "", CacheMemory:
		return tenant.NewMemoryCache(
			tenant.WithMaxAge(cfg.CacheMaxAge),
			tenant.WithCacheSize(cfg.CacheSize),
			tenant.WithClock(o.now),
		), nil
	case CacheRedis:
		if o.redis == nil {
			return nil, fmt.Errorf("%w: cache backend %q", ErrRedisNotConfigured, cfg.CacheBackend)
		}
		return redis.NewTenantCache(o.redis,
			redis.WithMaxAge(cfg.CacheMaxAge),
			redis.WithClock(o.now),
			redis.WithLogger(o.logger),
		), nil
	case CacheNone:
		return tenant.NoOpCache{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCacheBackend, cfg.CacheBackend)
}

// Resolve returns the active tenant bound to principalID.
func (s *Service) Resolve(ctx context.Context, principalID string, opts ...tenant.ResolveOption) (*tenant.Tenant, error) {
	return s.resolver.Resolve(ctx, principalID, opts...)
}

// ValidateTenantAccess reports whether principalID may act on tenantID.
func (s *Service) ValidateTenantAccess(ctx context.Context, principalID, tenantID string) error {
	return s.validator.ValidateTenantAccess(ctx, principalID, tenantID)
}

// Validate checks a, returning the validated tenant on success.
func (s *Service) Validate(ctx context.Context, a tenant.Access) (*tenant.Tenant, error) {
	return s.validator.Validate(ctx, a)
}

// Execute validates req and runs it against the store with the tenant injected.
func (s *Service) Execute(ctx context.Context, req scope.Request) (*scope.Result, error) {
	return s.scoper.Execute(ctx, req)
}

// Invalidate drops the cached tenant of principalID in this process.
func (s *Service) Invalidate(ctx context.Context, principalID string) error {
	return s.resolver.Invalidate(ctx, principalID)
}

// PublishInvalidation drops the cached tenant of principalID everywhere.
// Without redis it only affects this process. redis.AllPrincipals clears
// every principal.
func (s *Service) PublishInvalidation(ctx context.Context, principalID string) error {
	if s.redis != nil {
		return redis.PublishInvalidation(ctx, s.redis, s.cfg.InvalidationChannel, principalID)
	}
	if principalID == redis.AllPrincipals {
		return s.resolver.InvalidateAll(ctx)
	}
	return s.resolver.Invalidate(ctx, principalID)
}

// Listen applies invalidations published by other processes until ctx is done.
func (s *Service) Listen(ctx context.Context) error {
	if s.redis == nil {
		return ErrRedisNotConfigured
	}
	return redis.NewInvalidationListener(s.redis, s.cfg.InvalidationChannel, s.resolver, s.logger).Run(ctx)
}

// OnSessionEstablished starts resolving the tenant for a new session.
func (s *Service) OnSessionEstablished(ctx context.Context, principalID string) *async.Future[*tenant.Tenant] {
	return s.guard.OnSessionEstablished(ctx, principalID)
}

// OnSessionEnded clears the session and every cached tenant.
func (s *Service) OnSessionEnded(ctx context.Context) error {
	return s.guard.OnSessionEnded(ctx)
}

// Retry restarts a failed resolution.
func (s *Service) Retry(ctx context.Context) (*async.Future[*tenant.Tenant], error) {
	return s.guard.Retry(ctx)
}

// Refresh re-resolves the session's tenant after a reassignment.
func (s *Service) Refresh(ctx context.Context) (*async.Future[*tenant.Tenant], error) {
	return s.guard.Refresh(ctx)
}

// CurrentTenant reports the session's tenant status. It never blocks.
func (s *Service) CurrentTenant() guard.Current {
	return s.guard.CurrentTenant()
}

// Subscribe streams CurrentTenant snapshots until ctx is done.
func (s *Service) Subscribe(ctx context.Context) broadcast.Subscriber[guard.Current] {
	return s.guard.Subscribe(ctx)
}

// Middleware serves requests only once the session's tenant is ready.
func (s *Service) Middleware(opts ...guard.MiddlewareOption) func(http.Handler) http.Handler {
	return guard.Middleware(s.guard, opts...)
}

// TenantColumn is the column the scoper injects.
func (s *Service) TenantColumn() string {
	return s.scoper.TenantColumn()
}

// Close stops the guard and its subscribers.
func (s *Service) Close() error {
	return s.guard.Close()
}
