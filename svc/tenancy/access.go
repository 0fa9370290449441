package tenancy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/requestid"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

type accessConfig struct {
	principal    PrincipalFunc
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
	optional     bool
}

// AccessOption configures RequireAccess.
type AccessOption func(*accessConfig)

// WithPrincipalFunc replaces PrincipalFromContext as the principal source.
func WithPrincipalFunc(fn PrincipalFunc) AccessOption {
	return func(c *accessConfig) {
		if fn != nil {
			c.principal = fn
		}
	}
}

// WithAccessErrorHandler sets a custom error handler.
func WithAccessErrorHandler(handler func(w http.ResponseWriter, r *http.Request, err error)) AccessOption {
	return func(c *accessConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithOptionalTenant lets requests that name no tenant through unchanged.
func WithOptionalTenant() AccessOption {
	return func(c *accessConfig) {
		c.optional = true
	}
}

// DefaultAccessErrorHandler maps access errors to status codes.
func DefaultAccessErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoPrincipal):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrNoTenantRequested):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case tenant.KindOf(err) == tenant.KindTransient:
		http.Error(w, "Tenant temporarily unavailable", http.StatusServiceUnavailable)
	case tenant.KindOf(err) == tenant.KindCaller:
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAccess validates the tenant a request names against its principal
// and puts the validated tenant into the request context.
func (s *Service) RequireAccess(extract Extractor, opts ...AccessOption) func(http.Handler) http.Handler {
	cfg := &accessConfig{
		principal:    principalFromRequest,
		errorHandler: DefaultAccessErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID, err := extract(r)
			if err != nil {
				s.logger.WarnContext(ctx, "tenant identifier rejected",
					slog.String("path", r.URL.Path),
					logger.Error(err),
				)
				cfg.errorHandler(w, r, err)
				return
			}
			if tenantID == "" {
				if cfg.optional {
					next.ServeHTTP(w, r)
					return
				}
				cfg.errorHandler(w, r, ErrNoTenantRequested)
				return
			}

			principalID, ok := cfg.principal(r)
			if !ok {
				cfg.errorHandler(w, r, ErrNoPrincipal)
				return
			}

			t, err := s.validator.Validate(ctx, tenant.Access{
				PrincipalID: principalID,
				TenantID:    tenantID,
				CallSite:    requestid.CallSite(r),
			})
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(tenant.WithTenant(ctx, t)))
		})
	}
}
