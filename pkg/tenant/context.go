package tenant

import (
	"context"
	"log/slog"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
)

type contextKey struct{}

// WithTenant adds a tenant to the context.
func WithTenant(ctx context.Context, tenant *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, tenant)
}

// FromContext retrieves the tenant from the context.
// Returns nil, false if no tenant is found.
func FromContext(ctx context.Context) (*Tenant, bool) {
	tenant, ok := ctx.Value(contextKey{}).(*Tenant)
	if !ok || tenant == nil {
		return nil, false
	}
	return tenant, true
}

// IDFromContext retrieves just the tenant ID from the context.
func IDFromContext(ctx context.Context) (string, bool) {
	tenant, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return tenant.ID, true
}

// RequireFromContext is FromContext for callers that report a missing
// tenant as an error.
func RequireFromContext(ctx context.Context) (*Tenant, error) {
	tenant, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoTenantInContext
	}
	return tenant, nil
}

// MustFromContext is FromContext for handlers mounted behind a tenant
// middleware, where a missing tenant is a wiring bug. It panics with
// ErrNoTenantInContext.
func MustFromContext(ctx context.Context) *Tenant {
	tenant, err := RequireFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return tenant
}

// LoggerExtractor tags log records with the tenant validated for the
// request. Pass it to logger.WithContextExtractors.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return logger.TenantID(id), true
		}
		return slog.Attr{}, false
	}
}
