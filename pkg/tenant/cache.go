package tenant

import (
	"context"
	"time"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/cache"
)

const (
	// DefaultCacheMaxAge is how long a resolved tenant is trusted.
	DefaultCacheMaxAge = 5 * time.Minute

	// DefaultCacheSize is the default maximum number of principals cached.
	DefaultCacheSize = 1000
)

// Cache maps principal ids to their resolved tenant.
// Implementations must treat entries older than their max age as absent.
type Cache interface {
	// Get returns the cached tenant for the principal.
	Get(ctx context.Context, principalID string) (*Tenant, bool)

	// Put stores the tenant resolved for the principal.
	Put(ctx context.Context, principalID string, tenant *Tenant)

	// Invalidate drops the principal's entry.
	Invalidate(ctx context.Context, principalID string) error

	// InvalidateAll drops every entry.
	InvalidateAll(ctx context.Context) error
}

type cacheEntry struct {
	tenant    *Tenant
	fetchedAt time.Time
}

// MemoryCache is a bounded in-process Cache with least-recently-used eviction.
type MemoryCache struct {
	entries *cache.LRUCache[string, *cacheEntry]
	maxAge  time.Duration
	now     func() time.Time
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithMaxAge sets the staleness window. Non-positive values are ignored.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *MemoryCache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCacheSize limits the number of cached principals.
func WithCacheSize(size int) CacheOption {
	return func(c *MemoryCache) {
		if size > 0 {
			c.entries = cache.NewLRUCache[string, *cacheEntry](size)
		}
	}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...CacheOption) *MemoryCache {
	c := &MemoryCache{
		maxAge: DefaultCacheMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.entries == nil {
		c.entries = cache.NewLRUCache[string, *cacheEntry](DefaultCacheSize)
	}
	return c
}

// Get returns a copy of the cached tenant. Expired entries are removed.
func (c *MemoryCache) Get(_ context.Context, principalID string) (*Tenant, bool) {
	entry, ok := c.entries.Get(principalID)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.maxAge {
		// A concurrent Put may have replaced the entry; only drop this one.
		c.entries.RemoveIf(principalID, func(e *cacheEntry) bool { return e == entry })
		return nil, false
	}
	return entry.tenant.Clone(), true
}

// Put stores a copy of the tenant stamped with the current time.
func (c *MemoryCache) Put(_ context.Context, principalID string, tenant *Tenant) {
	if tenant == nil {
		return
	}
	c.entries.Put(principalID, &cacheEntry{tenant: tenant.Clone(), fetchedAt: c.now()})
}

func (c *MemoryCache) Invalidate(_ context.Context, principalID string) error {
	c.entries.Remove(principalID)
	return nil
}

func (c *MemoryCache) InvalidateAll(context.Context) error {
	c.entries.Clear()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// NoOpCache caches nothing. Every resolution hits the directory.
type NoOpCache struct{}

func (NoOpCache) Get(context.Context, string) (*Tenant, bool) { return nil, false }
func (NoOpCache) Put(context.Context, string, *Tenant)         {}
func (NoOpCache) Invalidate(context.Context, string) error     { return nil }
func (NoOpCache) InvalidateAll(context.Context) error          { return nil }
