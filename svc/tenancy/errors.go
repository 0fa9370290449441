package tenancy

import "errors"

var (
	ErrUnknownCacheBackend = errors.New("unknown tenant cache backend")
	ErrRedisNotConfigured  = errors.New("redis client is not configured")
	ErrInvalidIdentifier   = errors.New("invalid tenant identifier in request")
	ErrNoTenantRequested   = errors.New("request does not name a tenant")
	ErrNoPrincipal         = errors.New("request has no authenticated principal")
)
