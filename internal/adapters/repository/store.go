// Package repository defines the durable store for users and their named
// ratings, with SQLite and in-memory implementations.
package repository

import (
	"context"

	"github.com/okian/pairrank/internal/domain/model"
)

// Store provides load/save access to users and rateables. Orderings and
// uniqueness are the store's responsibility: ItemsByType returns items
// ascending by value, and item identity is (user, lower(name), type).
type Store interface {
	// GetOrCreateUser returns the user with username, creating it if absent.
	GetOrCreateUser(ctx context.Context, username string) (model.User, error)

	// GetUser returns the user with username. ErrNotFound if unknown.
	GetUser(ctx context.Context, username string) (model.User, error)

	// CreateItemIfAbsent creates a rateable with a null value. created is
	// false when the identity already exists; the existing item is
	// returned in that case.
	CreateItemIfAbsent(ctx context.Context, userID int64, itemType, name string) (item model.Rateable, created bool, err error)

	// ItemsByType returns the user's items of itemType ordered ascending
	// by value, unplaced (null-value) items first.
	ItemsByType(ctx context.Context, userID int64, itemType string) ([]model.Rateable, error)

	// ItemByID returns one item. ErrNotFound when absent.
	ItemByID(ctx context.Context, userID, itemID int64) (model.Rateable, error)

	// ItemByName returns one item matched case-insensitively by name.
	// ErrNotFound when absent.
	ItemByName(ctx context.Context, userID int64, itemType, name string) (model.Rateable, error)

	// UpdateValues bulk-overwrites the value of every given item.
	UpdateValues(ctx context.Context, userID int64, items []model.Rateable) error

	// DeleteItem removes an item. ErrNotFound when absent.
	DeleteItem(ctx context.Context, userID, itemID int64) error

	// Types returns the distinct item types the user has rated.
	Types(ctx context.Context, userID int64) ([]string, error)

	// Count returns the number of rateables tracked across all users.
	Count(ctx context.Context) int
}
