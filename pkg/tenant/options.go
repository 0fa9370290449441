package tenant

import (
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultResolveRetries    = 3
	DefaultResolveBackoff    = 100 * time.Millisecond
	DefaultResolveMaxBackoff = 2 * time.Second
)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets the cache consulted before the directory.
func WithCache(cache Cache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithRetry bounds retries of transient directory failures. Each wait grows
// exponentially from base and never exceeds maxBackoff. Zero retries
// disables retrying.
func WithRetry(retries uint64, base, maxBackoff time.Duration) ResolverOption {
	return func(r *Resolver) {
		if base <= 0 {
			base = DefaultResolveBackoff
		}
		if maxBackoff < base {
			maxBackoff = base
		}
		r.backoff = func() retry.Backoff {
			b := retry.NewExponential(base)
			b = retry.WithCappedDuration(maxBackoff, b)
			return retry.WithMaxRetries(retries, b)
		}
	}
}

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	allowInactive bool
	bootstrap     *Tenant
}

// AllowInactive lets Resolve return pending or suspended tenants.
// Intended for account recovery flows.
func AllowInactive() ResolveOption {
	return func(o *resolveOptions) {
		o.allowInactive = true
	}
}

// WithBootstrap returns a copy of t, marked Bootstrap, when the principal has
// no binding. The bootstrap tenant is never cached and never passes
// validation.
func WithBootstrap(t *Tenant) ResolveOption {
	return func(o *resolveOptions) {
		o.bootstrap = t
	}
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithStrictMembership makes every validation re-read the principal's
// memberships from the directory instead of trusting the cached binding.
func WithStrictMembership() ValidatorOption {
	return func(v *Validator) {
		v.strict = true
	}
}

// WithValidatorLogger sets the logger failures are reported to.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}
