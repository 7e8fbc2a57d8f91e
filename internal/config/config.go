// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"github.com/okian/pairrank/internal/domain/ranking"
)

// Cache backend selectors.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// PublicKey holds the hex-encoded Ed25519 key interaction payloads
	// are signed with. Verification is skipped when empty.
	PublicKey string `koanf:"public_key"`

	// CacheBackend selects the session cache: memory or redis.
	CacheBackend string `koanf:"cache_backend"`

	// RedisAddr and RedisPassword configure the redis backend.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// SessionTTLMinutes bounds how long an unanswered interview survives.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SweepIntervalSeconds sets how often the in-memory cache reaps
	// expired sessions.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// MaxComparisons caps the number of questions a single interview may ask.
	MaxComparisons int `koanf:"max_comparisons"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DBPath:               "pairrank.db",
		CacheBackend:         CacheBackendMemory,
		RedisAddr:            "localhost:6379",
		SessionTTLMinutes:    30,
		SweepIntervalSeconds: 60,
		MaxComparisons:       ranking.DefaultMaxComparisons,
	}
}
