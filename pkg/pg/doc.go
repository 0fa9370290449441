// Package pg is the PostgreSQL backend for tenant resolution and
// tenant-scoped data access, built on pgx/v5 and goose/v3.
//
// # Architecture
//
//   - Config is populated from environment variables via
//     github.com/caarlos0/env. It controls pool limits, health-check cadence,
//     the goose version table, and the session setting that carries the
//     current tenant.
//
//   - Connect opens a *pgxpool.Pool, retrying with exponential back-off until
//     the database becomes available.
//
//   - Migrate applies the embedded schema (tenants and tenant_memberships).
//
//   - Directory implements tenant.Directory over those two tables.
//
//   - Store implements scope.Store. Every statement runs in a transaction that
//     first sets the tenant setting with set_config, so row-level security
//     policies keyed on current_setting see the validated tenant.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
//	resolver := tenant.NewResolver(pg.NewDirectory(pool))
//	scoper := scope.New(tenant.NewValidator(resolver), pg.NewStore(pool))
//
// # Error Handling
//
// [IsNotFoundError], [IsDuplicateKeyError] and [IsForeignKeyViolationError]
// classify errors returned by pgx. Store refuses any operation whose filter or
// payload lacks a tenant value with [ErrMissingTenantFilter].
package pg
