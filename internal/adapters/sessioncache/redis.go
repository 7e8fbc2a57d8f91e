package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/pairrank/internal/domain/model"
)

const defaultKeyPrefix = "pairrank:session:"

// RedisCache implements Cache on a Redis backend. Insert-if-absent maps to
// SETNX and expiry is handled server-side, so abandoned sessions disappear
// without a sweeper in this process.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed session cache.
func NewRedisCache(client *redis.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    defaultTTL,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + key.String()
}

// Store inserts the session unless a live one already exists for key.
func (c *RedisCache) Store(ctx context.Context, key Key, s *model.Session) (bool, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	stored, err := c.client.SetNX(ctx, c.redisKey(key), data, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return stored, nil
}

// Get returns the live session for key, if any.
func (c *RedisCache) Get(ctx context.Context, key Key) (*model.Session, bool, error) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return &s, true, nil
}

// Update overwrites the session for key and refreshes its expiry.
func (c *RedisCache) Update(ctx context.Context, key Key, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Remove evicts the session for key. DEL of an absent key is a no-op.
func (c *RedisCache) Remove(ctx context.Context, key Key) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Size counts the live sessions under this cache's key prefix. Intended
// for stats, not hot paths; it scans the keyspace.
func (c *RedisCache) Size(ctx context.Context) int64 {
	var count int64
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0
	}
	return count
}
