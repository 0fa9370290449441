package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// TenantCache is a tenant.Cache shared by every process using the same
// Redis database. Entries expire in Redis after the max age and are also
// checked against their fetched_at stamp on read.
type TenantCache struct {
	db        redis.UniversalClient
	prefix    string
	maxAge    time.Duration
	scanBatch int64
	now       func() time.Time
	logger    *slog.Logger
}

type cacheEntry struct {
	Tenant    *tenant.Tenant `json:"tenant"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// CacheOption configures a TenantCache.
type CacheOption func(*TenantCache)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *TenantCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithMaxAge sets the staleness window and key TTL.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *TenantCache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithScanBatchSize sets the SCAN COUNT hint used by InvalidateAll.
func WithScanBatchSize(n int64) CacheOption {
	return func(c *TenantCache) {
		if n > 0 {
			c.scanBatch = n
		}
	}
}

// WithClock replaces time.Now for fetched_at stamps.
func WithClock(now func() time.Time) CacheOption {
	return func(c *TenantCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger Redis failures are reported to.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *TenantCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewTenantCache creates a cache over client.
func NewTenantCache(client redis.UniversalClient, opts ...CacheOption) *TenantCache {
	c := &TenantCache{
		db:        client,
		prefix:    "tenant:principal:",
		maxAge:    tenant.DefaultCacheMaxAge,
		scanBatch: 1000,
		now:       time.Now,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("redis.tenant_cache"))
	return c
}

// Get treats Redis errors as a miss so resolution falls through to the
// directory.
func (c *TenantCache) Get(ctx context.Context, principalID string) (*tenant.Tenant, bool) {
	data, err := c.db.Get(ctx, c.key(principalID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "tenant cache read failed", logger.PrincipalID(principalID), logger.Error(err))
		}
		return nil, false
	}

	entry, err := decodeEntry(data)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable tenant cache entry", logger.PrincipalID(principalID), logger.Error(err))
		_ = c.db.Del(ctx, c.key(principalID)).Err()
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) > c.maxAge {
		return nil, false
	}
	return entry.Tenant, true
}

func (c *TenantCache) Put(ctx context.Context, principalID string, t *tenant.Tenant) {
	if t == nil {
		return
	}
	data, err := encodeEntry(cacheEntry{Tenant: t, FetchedAt: c.now()})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode tenant cache entry", logger.PrincipalID(principalID), logger.Error(err))
		return
	}
	if err := c.db.Set(ctx, c.key(principalID), data, c.maxAge).Err(); err != nil {
		c.logger.WarnContext(ctx, "tenant cache write failed", logger.PrincipalID(principalID), logger.Error(err))
	}
}

func (c *TenantCache) Invalidate(ctx context.Context, principalID string) error {
	return c.db.Del(ctx, c.key(principalID)).Err()
}

// InvalidateAll deletes every key under the prefix. SCAN is used so large
// keyspaces do not block the server. A cluster is scanned master by master,
// since SCAN only walks the node it is sent to.
func (c *TenantCache) InvalidateAll(ctx context.Context) error {
	if cluster, ok := c.db.(*redis.ClusterClient); ok {
		return cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return c.purge(ctx, node)
		})
	}
	return c.purge(ctx, c.db)
}

// purge deletes keys one by one in a pipeline: keys found on one cluster
// node can still hash to different slots, which a multi-key DEL rejects.
func (c *TenantCache) purge(ctx context.Context, db redis.Cmdable) error {
	var cursor uint64
	for {
		keys, next, err := db.Scan(ctx, cursor, c.prefix+"*", c.scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := db.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *TenantCache) key(principalID string) string {
	return c.prefix + principalID
}

func encodeEntry(e cacheEntry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (cacheEntry, error) {
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	if e.Tenant == nil {
		return e, errors.New("entry has no tenant")
	}
	return e, nil
}
