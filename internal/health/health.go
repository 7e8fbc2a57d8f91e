// Package health provides liveness checkers for the service's external
// dependencies, surfaced through the healthz endpoint.
package health

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Checker reports whether one dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// DBChecker pings a database handle.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker wraps an open database handle.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// RedisChecker pings a redis client.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps a connected redis client.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
