package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL is the URL of the database. It should be in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of attempts to connect to the database.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the wait between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connection phase.

	KeyPrefix           string `env:"REDIS_TENANT_KEY_PREFIX" envDefault:"tenant:principal:"`            // KeyPrefix namespaces cached tenant entries.
	InvalidationChannel string `env:"REDIS_TENANT_INVALIDATION_CHANNEL" envDefault:"tenant:invalidate"` // InvalidationChannel carries tenant reassignment signals.
	ScanBatchSize       int64  `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`                          // ScanBatchSize is the COUNT hint for SCAN in InvalidateAll.
}
