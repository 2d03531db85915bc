package redis

import "time"

// Config describes the Redis connection used by the checksum index.
// An empty ConnectionURL means the index is disabled.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // Format: "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // Number of connection attempts before giving up.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // Delay between connection attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // Upper bound for the whole Connect call.
	KeyPrefix      string        `env:"REDIS_INDEX_PREFIX" envDefault:"intake:sha256:"`
	KeyTTL         time.Duration `env:"REDIS_INDEX_TTL" envDefault:"0s"` // Zero keeps entries forever.
}
