// Package redis shares resolved tenants between service instances.
//
// Connect opens a go-redis client and retries until the server answers.
// TenantCache implements tenant.Cache on top of it: entries are JSON with the
// time they were fetched, expire through the key TTL, and are also checked
// against the configured max age on read so a clock-skewed TTL cannot serve
// a stale tenant.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	cache := redis.NewTenantCache(client, redis.WithKeyPrefix(cfg.KeyPrefix))
//	resolver := tenant.NewResolver(directory, tenant.WithCache(cache))
//
// Invalidation on one instance reaches the others through pub/sub:
//
//	_ = redis.PublishInvalidation(ctx, client, cfg.InvalidationChannel, "u1")
//
//	l := redis.NewInvalidationListener(client, cfg.InvalidationChannel, resolver, log)
//	go l.Run(ctx)
//
// A payload of [AllPrincipals] drops every cached tenant.
//
// Healthcheck returns a closure suitable for readiness probes.
package redis
