package guard

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// ErrorHandler writes the response for a request that has no ready tenant.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes served without a tenant.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithMiddlewareLogger sets the logger for rejected requests.
func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// DefaultErrorHandler maps guard errors to status codes: 503 while the
// tenant is pending or resolution failed transiently, 401 without a session
// and 403 for every other resolution failure.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantPending):
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Tenant is loading", http.StatusServiceUnavailable)
	case errors.Is(err, ErrNoSession):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case tenant.KindOf(err) == tenant.KindTransient:
		http.Error(w, "Tenant temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// Middleware puts the guard's ready tenant into the request context.
// Requests are never served with a pending or stale tenant.
func Middleware(g *Guard, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cur := g.CurrentTenant()
			switch cur.Status {
			case StatusReady:
				next.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), cur.Tenant)))
				return
			case StatusPending:
				cfg.errorHandler(w, r, ErrTenantPending)
				return
			}

			err := ErrNoSession
			if cur.Err != nil {
				err = cur.Err
			}
			cfg.logger.WarnContext(r.Context(), "request rejected without tenant",
				logger.PrincipalID(cur.PrincipalID),
				slog.String("path", r.URL.Path),
				logger.Error(err),
			)
			cfg.errorHandler(w, r, err)
		})
	}
}
