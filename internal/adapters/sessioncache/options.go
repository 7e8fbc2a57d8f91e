package sessioncache

import "time"

// Option applies a configuration option to the InMemoryCache.
type Option func(*InMemoryCache)

// WithTTL sets how long an untouched session stays alive.
func WithTTL(ttl time.Duration) Option {
	return func(c *InMemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions are reaped.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *InMemoryCache) {
		if interval > 0 {
			c.sweep = interval
		}
	}
}

// RedisOption applies a configuration option to the RedisCache.
type RedisOption func(*RedisCache)

// WithRedisTTL sets the server-side expiry for cached sessions.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the namespace prefix for session keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}
