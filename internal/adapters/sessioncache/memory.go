package sessioncache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pairrank/internal/domain/model"
	"github.com/okian/pairrank/pkg/metrics"
)

// Default in-memory cache configuration.
const (
	defaultTTL           = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type entry struct {
	session   *model.Session
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryCache implements Cache with a mutex-guarded map and a background
// sweep that reaps abandoned sessions once their TTL lapses. Sessions are
// stored and returned as deep copies so cached state can only change
// through Update.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	ttl      time.Duration
	sweep    time.Duration
	size     atomic.Int64
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewInMemoryCache creates an in-memory session cache and starts its sweep
// goroutine. Call Close to stop the sweeper.
func NewInMemoryCache(opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]*entry),
		ttl:     defaultTTL,
		sweep:   defaultSweepInterval,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.sweepLoop()
	return c
}

// Store inserts the session unless a live one already exists for key.
func (c *InMemoryCache) Store(ctx context.Context, key Key, s *model.Session) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if existing, ok := c.entries[key.String()]; ok && !existing.expired(now) {
		return false, nil
	}
	if existing, ok := c.entries[key.String()]; ok && existing.expired(now) {
		// Replacing a dead entry, not a live one.
		c.size.Add(-1)
	}
	c.entries[key.String()] = &entry{session: s.Clone(), expiresAt: now.Add(c.ttl)}
	c.size.Add(1)
	return true, nil
}

// Get returns a copy of the live session for key.
func (c *InMemoryCache) Get(ctx context.Context, key Key) (*model.Session, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.String()]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	return e.session.Clone(), true, nil
}

// Update overwrites the session for key and refreshes its TTL.
func (c *InMemoryCache) Update(ctx context.Context, key Key, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key.String()]; !ok {
		c.size.Add(1)
	}
	c.entries[key.String()] = &entry{session: s.Clone(), expiresAt: time.Now().Add(c.ttl)}
	return nil
}

// Remove evicts the session for key. Absent keys are a no-op.
func (c *InMemoryCache) Remove(ctx context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key.String()]; ok {
		delete(c.entries, key.String())
		c.size.Add(-1)
	}
	return nil
}

// Size returns the number of cached sessions, including any expired
// entries the sweeper has not reaped yet.
func (c *InMemoryCache) Size(ctx context.Context) int64 {
	return c.size.Load()
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *InMemoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	return nil
}

func (c *InMemoryCache) sweepLoop() {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.reapExpired()
		}
	}
}

func (c *InMemoryCache) reapExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			c.size.Add(-1)
			metrics.RecordSessionExpired()
		}
	}
}
