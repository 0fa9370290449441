package tenancy

import (
	"context"
	"net/http"
)

type principalContextKey struct{}

// WithPrincipal stores the authenticated principal id for the middleware chain.
func WithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principalID)
}

// PrincipalFromContext returns the principal id stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalContextKey{}).(string)
	return id, ok && id != ""
}

// PrincipalFunc reports the authenticated principal of a request.
type PrincipalFunc func(r *http.Request) (string, bool)

func principalFromRequest(r *http.Request) (string, bool) {
	return PrincipalFromContext(r.Context())
}
