package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
)

// Access names the two parties of an access check.
type Access struct {
	PrincipalID string
	TenantID    string

	// AllowInactive admits pending and suspended tenants, for recovery flows.
	AllowInactive bool

	// CallSite labels the operation in failure logs.
	CallSite string
}

// Validator is the check every data operation passes before touching
// storage. It never mutates anything and never substitutes a tenant.
type Validator struct {
	resolver  *Resolver
	directory Directory
	strict    bool
	logger    *slog.Logger
}

// NewValidator creates a validator that resolves principals through resolver.
func NewValidator(resolver *Resolver, opts ...ValidatorOption) *Validator {
	if resolver == nil {
		panic("tenant: validator requires a resolver")
	}

	v := &Validator{
		resolver:  resolver,
		directory: resolver.directory,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(logger.Component("tenant.validator"))
	return v
}

// ValidateTenantAccess checks that principalID may act on tenantID.
// The principal always comes first.
func (v *Validator) ValidateTenantAccess(ctx context.Context, principalID, tenantID string) error {
	_, err := v.Validate(ctx, Access{PrincipalID: principalID, TenantID: tenantID})
	return err
}

// Validate checks the access and returns the validated tenant.
// Every failure is an *AccessError.
func (v *Validator) Validate(ctx context.Context, a Access) (*Tenant, error) {
	t, err := v.validate(ctx, a)
	if err != nil {
		v.report(ctx, err)
		return nil, err
	}
	return t, nil
}

func (v *Validator) validate(ctx context.Context, a Access) (*Tenant, error) {
	if err := checkID(a.PrincipalID); err != nil {
		return nil, deny(a, ErrInvalidArgument, "", fmt.Errorf("principal id: %w", err))
	}
	if err := checkID(a.TenantID); err != nil {
		return nil, deny(a, ErrInvalidArgument, "", fmt.Errorf("tenant id: %w", err))
	}

	t, err := v.resolver.lookup(ctx, a.PrincipalID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoTenantAssigned):
		if v.isPrincipal(ctx, a.TenantID) {
			return nil, deny(a, ErrSuspectedArgumentOrder, "", nil)
		}
		return nil, deny(a, ErrNoBinding, "", err)
	case errors.Is(err, ErrTenantNotFound):
		return nil, deny(a, ErrTenantInactive, "", err)
	case errors.Is(err, ErrDuplicateBinding):
		return nil, deny(a, ErrDuplicateBinding, "", err)
	default:
		return nil, deny(a, ErrResolutionFailed, "", err)
	}

	if t.ID != a.TenantID {
		return nil, deny(a, ErrTenantMismatch, t.ID, nil)
	}

	if !t.IsActive() && !a.AllowInactive {
		return nil, deny(a, ErrTenantInactive, t.ID, fmt.Errorf("tenant status is %s", t.Status))
	}

	if v.strict {
		ids, err := v.directory.FetchMemberships(ctx, a.PrincipalID)
		if err != nil {
			return nil, deny(a, ErrResolutionFailed, t.ID, err)
		}
		if !slices.Contains(ids, a.TenantID) {
			return nil, deny(a, ErrNoBinding, t.ID, errors.New("binding no longer present in directory"))
		}
	}

	return t, nil
}

// isPrincipal reports whether id has memberships of its own, meaning it is
// a principal id sitting in the tenant position.
func (v *Validator) isPrincipal(ctx context.Context, id string) bool {
	ids, err := v.directory.FetchMemberships(ctx, id)
	return err == nil && len(ids) > 0
}

func (v *Validator) report(ctx context.Context, err error) {
	var ae *AccessError
	if !errors.As(err, &ae) {
		return
	}

	level := slog.LevelWarn
	if KindOf(err) == KindCaller {
		level = slog.LevelError
	}
	v.logger.Log(ctx, level, "tenant access denied",
		logger.PrincipalID(ae.PrincipalID),
		logger.TenantID(ae.TenantID),
		logger.ResolvedTenantID(ae.ResolvedTenantID),
		logger.CallSite(ae.CallSite),
		logger.Reason(ae.Reason),
		logger.Error(ae.Cause),
	)
}

func deny(a Access, reason error, resolved string, cause error) *AccessError {
	return &AccessError{
		Reason:           reason,
		PrincipalID:      a.PrincipalID,
		TenantID:         a.TenantID,
		ResolvedTenantID: resolved,
		CallSite:         a.CallSite,
		Cause:            cause,
	}
}
