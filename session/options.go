package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxSessions caps the in-memory store.
	DefaultMaxSessions = 4096
	// DefaultKeyPrefix namespaces Redis keys.
	DefaultKeyPrefix = "foodagent:session:"
)

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

// storeConfig holds configuration for session stores.
type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
	maxSessions int
	keyPrefix   string
	now         func() time.Time
}

func newStoreConfig(opts []StoreOption) *storeConfig {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}
	if cfg.maxSessions <= 0 {
		cfg.maxSessions = DefaultMaxSessions
	}
	if cfg.keyPrefix == "" {
		cfg.keyPrefix = DefaultKeyPrefix
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithTTL sets the idle lifetime of a session. Reads and writes refresh it.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithMaxSessions caps the in-memory store; least recently used sessions are evicted.
func WithMaxSessions(n int) StoreOption {
	return func(c *storeConfig) {
		c.maxSessions = n
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}
