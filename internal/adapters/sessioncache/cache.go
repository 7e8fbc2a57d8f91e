// Package sessioncache stores in-progress ranking sessions between the
// stateless webhook round trips of a comparison interview.
package sessioncache

import (
	"context"
	"fmt"

	"github.com/okian/pairrank/internal/domain/model"
)

// Key identifies the single live session allowed per (user, item) pair.
type Key struct {
	UserID int64
	ItemID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.UserID, k.ItemID)
}

// Cache bridges the stateless transport to the stateful comparison
// protocol. Store is insert-if-absent: a second Store for a live key is a
// no-op, so two interleaved interviews for the same item cannot clobber
// each other's accumulated answers. Sessions expire after a TTL so an
// abandoned interview does not leak forever.
type Cache interface {
	// Store inserts the session if no live session exists for key.
	// It reports whether the session was stored.
	Store(ctx context.Context, key Key, s *model.Session) (bool, error)

	// Get returns the live session for key, if any. An expired session is
	// indistinguishable from an absent one.
	Get(ctx context.Context, key Key) (*model.Session, bool, error)

	// Update overwrites the live session for key after an answer was
	// appended, refreshing its TTL.
	Update(ctx context.Context, key Key, s *model.Session) error

	// Remove evicts the session for key. Removing an absent key is not an
	// error, so eviction is safe to retry.
	Remove(ctx context.Context, key Key) error

	// Size returns the number of live sessions.
	Size(ctx context.Context) int64
}
