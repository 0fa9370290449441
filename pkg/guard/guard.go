package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/async"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/broadcast"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/statemachine"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// Resolver is the subset of *tenant.Resolver the guard drives.
type Resolver interface {
	Resolve(ctx context.Context, principalID string, opts ...tenant.ResolveOption) (*tenant.Tenant, error)
	Invalidate(ctx context.Context, principalID string) error
	InvalidateAll(ctx context.Context) error
}

// Status is what dependent code observes about the current tenant.
type Status int

const (
	// StatusAbsent means there is no session or resolution failed.
	StatusAbsent Status = iota
	// StatusPending means a session exists and its tenant is being resolved.
	StatusPending
	// StatusReady means Tenant belongs to the current session's principal.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	}
	return "absent"
}

// Current is a snapshot of the guard. Tenant is set only when Status is
// StatusReady; Err only after a failed resolution.
type Current struct {
	Status      Status
	Tenant      *tenant.Tenant
	PrincipalID string
	Err         error
}

// Guard sequences session and tenant initialization so that no stale or
// placeholder tenant is ever observed. All methods are safe for concurrent use.
type Guard struct {
	resolver    Resolver
	resolveOpts []tenant.ResolveOption
	logger      *slog.Logger
	sm          statemachine.StateMachine
	updates     *broadcast.Broadcaster[Current]

	mu        sync.Mutex
	gen       uint64
	principal string
	tenant    *tenant.Tenant
	err       error
	future    *async.Future[*tenant.Tenant]
	cancel    context.CancelFunc
	closed    bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the guard logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithResolveOptions passes options to every resolution, for example
// tenant.AllowInactive for a recovery console.
func WithResolveOptions(opts ...tenant.ResolveOption) Option {
	return func(g *Guard) {
		g.resolveOpts = append(g.resolveOpts, opts...)
	}
}

// WithSubscriberBuffer sets how many snapshots a slow subscriber may lag.
func WithSubscriberBuffer(n int) Option {
	return func(g *Guard) {
		g.updates = broadcast.New[Current](n)
	}
}

// New creates a guard in the unauthenticated state.
func New(resolver Resolver, opts ...Option) *Guard {
	if resolver == nil {
		panic("guard: resolver is required")
	}

	g := &Guard{
		resolver: resolver,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.updates == nil {
		g.updates = broadcast.New[Current](8)
	}
	g.logger = g.logger.With(logger.Component("guard"))
	// The generation guard runs inside Fire, which is only called with g.mu held.
	g.sm = newMachine(func() uint64 { return g.gen })
	return g
}

// State returns the lifecycle state.
func (g *Guard) State() statemachine.State {
	return g.sm.Current()
}

// OnSessionEstablished starts resolving the principal's tenant. The returned
// future completes with the tenant, the resolution error, or ErrSessionEnded
// if the session was replaced first.
//
// A different principal implicitly ends the previous session. Repeating the
// call for the principal already resolving or ready returns the existing future.
func (g *Guard) OnSessionEstablished(ctx context.Context, principalID string) *async.Future[*tenant.Tenant] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return async.Completed[*tenant.Tenant](nil, ErrClosed)
	}
	if principalID == "" {
		return async.Completed[*tenant.Tenant](nil, tenant.ErrInvalidPrincipal)
	}

	state := g.sm.Current()
	if principalID == g.principal && g.future != nil &&
		(state == StateTenantResolving || state == StateTenantReady) {
		return g.future
	}

	if state != StateUnauthenticated {
		g.logger.InfoContext(ctx, "new principal replaces active session",
			logger.PrincipalID(principalID),
			logger.State(state.Name()),
		)
		g.endLocked(ctx)
	}

	g.gen++
	g.principal = principalID
	if !g.fireLocked(ctx, EventSessionEstablished, nil) || !g.fireLocked(ctx, EventResolveStarted, nil) {
		return async.Completed[*tenant.Tenant](nil, ErrSessionEnded)
	}
	return g.startLocked(ctx)
}

// OnSessionEnded clears the session and synchronously invalidates every
// cached tenant. In-flight resolutions are discarded when they land.
func (g *Guard) OnSessionEnded(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.endLocked(ctx)
}

// Retry re-resolves after a failure.
func (g *Guard) Retry(ctx context.Context) (*async.Future[*tenant.Tenant], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sm.Current() != StateError {
		return nil, ErrNotRetryable
	}
	g.gen++
	g.err = nil
	if !g.fireLocked(ctx, EventRetry, nil) {
		return nil, ErrNotRetryable
	}
	return g.startLocked(ctx), nil
}

// Refresh drops the ready tenant and resolves it again, for example after a
// tenant reassignment signal. The guard is pending until it completes.
func (g *Guard) Refresh(ctx context.Context) (*async.Future[*tenant.Tenant], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sm.Current() != StateTenantReady {
		return nil, ErrNotReady
	}
	if err := g.resolver.Invalidate(ctx, g.principal); err != nil {
		return nil, err
	}
	g.gen++
	g.tenant = nil
	if !g.fireLocked(ctx, EventRefresh, nil) {
		return nil, ErrNotReady
	}
	return g.startLocked(ctx), nil
}

// CurrentTenant reports the tenant for the current session. It never blocks
// on resolution and never returns a tenant from an earlier session.
func (g *Guard) CurrentTenant() Current {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked()
}

// Subscribe streams a snapshot after every state change until ctx is done.
func (g *Guard) Subscribe(ctx context.Context) broadcast.Subscriber[Current] {
	return g.updates.Subscribe(ctx)
}

// Close ends the session, cancels in-flight work and closes subscriptions.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	err := g.endLocked(context.Background())
	g.closed = true
	g.mu.Unlock()

	return errors.Join(err, g.updates.Close())
}

func (g *Guard) startLocked(ctx context.Context) *async.Future[*tenant.Tenant] {
	gen := g.gen
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.cancel = cancel
	g.publishLocked()

	g.future = async.Async(rctx, g.principal, func(ctx context.Context, principalID string) (*tenant.Tenant, error) {
		defer cancel()

		t, err := g.resolver.Resolve(ctx, principalID, g.resolveOpts...)
		if !g.complete(ctx, gen, principalID, t, err) {
			return nil, ErrSessionEnded
		}
		return t, err
	})
	return g.future
}

// complete applies a resolution result if its generation is still current.
func (g *Guard) complete(ctx context.Context, gen uint64, principalID string, t *tenant.Tenant, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	event := EventResolved
	if err != nil {
		event = EventResolveFailed
	}
	if ferr := g.sm.Fire(ctx, event, gen); ferr != nil {
		g.logger.DebugContext(ctx, "discarding stale tenant resolution",
			logger.PrincipalID(principalID),
			logger.Generation(gen),
			logger.Error(ferr),
		)
		return false
	}

	if err != nil {
		g.err = err
		g.logger.WarnContext(ctx, "tenant resolution failed",
			logger.PrincipalID(principalID),
			logger.Generation(gen),
			logger.Error(err),
		)
	} else {
		g.tenant = t.Clone()
		g.logger.InfoContext(ctx, "tenant ready",
			logger.PrincipalID(principalID),
			logger.TenantID(t.ID),
			logger.Generation(gen),
		)
	}
	g.publishLocked()
	return true
}

func (g *Guard) endLocked(ctx context.Context) error {
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.principal = ""
	g.tenant = nil
	g.err = nil
	g.future = nil

	err := g.resolver.InvalidateAll(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to invalidate tenant cache on sign-out", logger.Error(err))
	}
	g.fireLocked(ctx, EventSessionEnded, nil)
	g.publishLocked()
	return err
}

func (g *Guard) fireLocked(ctx context.Context, event statemachine.Event, data any) bool {
	from := g.sm.Current()
	if err := g.sm.Fire(ctx, event, data); err != nil {
		g.logger.ErrorContext(ctx, "unexpected guard transition",
			logger.State(from.Name()),
			slog.String("event", event.Name()),
			logger.Error(err),
		)
		return false
	}
	g.logger.DebugContext(ctx, "guard transition",
		logger.State(g.sm.Current().Name()),
		slog.String("event", event.Name()),
		logger.Generation(g.gen),
	)
	return true
}

func (g *Guard) currentLocked() Current {
	switch g.sm.Current() {
	case StateTenantReady:
		return Current{Status: StatusReady, Tenant: g.tenant.Clone(), PrincipalID: g.principal}
	case StateSessionReady, StateTenantResolving:
		return Current{Status: StatusPending, PrincipalID: g.principal}
	case StateError:
		return Current{Status: StatusAbsent, PrincipalID: g.principal, Err: g.err}
	}
	return Current{Status: StatusAbsent}
}

func (g *Guard) publishLocked() {
	g.updates.Broadcast(g.currentLocked())
}
