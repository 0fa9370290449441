package tenancy

import (
	"time"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/config"
)

// Cache backends accepted by Config.CacheBackend.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds the tenancy settings read from the environment.
type Config struct {
	CacheBackend      string        `env:"TENANT_CACHE_BACKEND" envDefault:"memory"`
	CacheMaxAge       time.Duration `env:"TENANT_CACHE_MAX_AGE" envDefault:"5m"`
	CacheSize         int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`
	ResolveRetries    uint64        `env:"TENANT_RESOLVE_RETRIES" envDefault:"3"`
	ResolveBackoff    time.Duration `env:"TENANT_RESOLVE_BACKOFF" envDefault:"100ms"`
	ResolveMaxBackoff time.Duration `env:"TENANT_RESOLVE_MAX_BACKOFF" envDefault:"2s"`
	StrictMembership  bool          `env:"TENANT_STRICT_MEMBERSHIP" envDefault:"false"`
	TenantColumn      string        `env:"TENANT_COLUMN" envDefault:"tenant_id"`
	// InvalidationChannel is the pub/sub channel Listen subscribes to when a
	// redis client is configured.
	InvalidationChannel string `env:"TENANT_INVALIDATION_CHANNEL" envDefault:"tenant:invalidate"`
}

// LoadConfig reads Config from the environment and an optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
