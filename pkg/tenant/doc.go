// Package tenant resolves, caches and validates the tenant of the
// authenticated principal.
//
// Three pieces work together:
//
//   - Resolver looks up the tenant bound to a principal through a Directory,
//     memoizing results in a Cache. Concurrent cold lookups for one principal
//     share a single fetch, and transient directory failures are retried with
//     bounded exponential backoff.
//   - Cache holds principal to tenant entries for a bounded time. MemoryCache
//     is the in-process implementation; NoOpCache disables caching.
//   - Validator is the check every data operation must pass before touching
//     storage. It confirms the ids are well formed, the tenant is the one the
//     principal is bound to, and the tenant is active.
//
// Basic usage:
//
//	dir := tenant.NewMemoryDirectory()
//	dir.AddTenant(tenant.Tenant{ID: "t1", Name: "Springfield", Status: tenant.StatusActive})
//	dir.Bind("u1", "t1")
//
//	resolver := tenant.NewResolver(dir, tenant.WithCache(tenant.NewMemoryCache()))
//	validator := tenant.NewValidator(resolver)
//
//	if err := validator.ValidateTenantAccess(ctx, "u1", "t1"); err != nil {
//		switch tenant.KindOf(err) {
//		case tenant.KindCaller:
//			// fix the call site
//		case tenant.KindState:
//			// assignment, support or re-authentication flow
//		case tenant.KindTransient:
//			// retry later
//		}
//	}
//
// Validation failures are *AccessError values carrying the principal id,
// tenant id and call site; errors.Is matches the sentinel reason such as
// ErrTenantMismatch or ErrSuspectedArgumentOrder.
//
// Sign-out must call Resolver.InvalidateAll synchronously. A fetch still in
// flight at that moment answers its waiters but does not populate the cache.
//
// No component here ever falls back to a default tenant. A bootstrap tenant
// is only available through the explicit WithBootstrap resolve option and is
// rejected by the Validator.
package tenant
