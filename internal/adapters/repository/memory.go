package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/pairrank/internal/domain/model"
)

// InMemoryStore is a map-backed Store used by tests and as a fallback when
// no database path is configured. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu         sync.RWMutex
	users      map[string]model.User
	items      map[int64]model.Rateable
	nextUserID int64
	nextItemID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[string]model.User),
		items: make(map[int64]model.Rateable),
	}
}

// GetOrCreateUser returns the user with username, creating it if absent.
func (s *InMemoryStore) GetOrCreateUser(ctx context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[username]; ok {
		return user, nil
	}
	s.nextUserID++
	user := model.User{ID: s.nextUserID, Username: username}
	s.users[username] = user
	return user, nil
}

// GetUser returns the user with username.
func (s *InMemoryStore) GetUser(ctx context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return user, nil
}

// CreateItemIfAbsent creates a rateable with a nil value, or returns the
// existing item when the identity is taken.
func (s *InMemoryStore) CreateItemIfAbsent(ctx context.Context, userID int64, itemType, name string) (model.Rateable, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findByName(userID, itemType, name); ok {
		return existing, false, nil
	}
	s.nextItemID++
	item := model.Rateable{ID: s.nextItemID, UserID: userID, Type: itemType, Name: name}
	s.items[item.ID] = item
	return item, true, nil
}

// ItemsByType returns the user's items of itemType ascending by value,
// unplaced items first, ties broken by id.
func (s *InMemoryStore) ItemsByType(ctx context.Context, userID int64, itemType string) ([]model.Rateable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.Rateable
	for _, item := range s.items {
		if item.UserID == userID && item.Type == itemType {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Value == nil && b.Value == nil:
			return a.ID < b.ID
		case a.Value == nil:
			return true
		case b.Value == nil:
			return false
		case *a.Value != *b.Value:
			return *a.Value < *b.Value
		default:
			return a.ID < b.ID
		}
	})
	return items, nil
}

// ItemByID returns one of the user's items by id.
func (s *InMemoryStore) ItemByID(ctx context.Context, userID, itemID int64) (model.Rateable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return model.Rateable{}, fmt.Errorf("item id %d: %w", itemID, ErrNotFound)
	}
	return item, nil
}

// ItemByName returns one of the user's items matched case-insensitively.
func (s *InMemoryStore) ItemByName(ctx context.Context, userID int64, itemType, name string) (model.Rateable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.findByName(userID, itemType, name)
	if !ok {
		return model.Rateable{}, fmt.Errorf("item %q: %w", name, ErrNotFound)
	}
	return item, nil
}

// UpdateValues bulk-overwrites the value of every given item.
func (s *InMemoryStore) UpdateValues(ctx context.Context, userID int64, items []model.Rateable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		stored, ok := s.items[item.ID]
		if !ok || stored.UserID != userID {
			continue
		}
		if item.Value != nil {
			v := *item.Value
			stored.Value = &v
		} else {
			stored.Value = nil
		}
		s.items[item.ID] = stored
	}
	return nil
}

// DeleteItem removes one of the user's items.
func (s *InMemoryStore) DeleteItem(ctx context.Context, userID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return fmt.Errorf("item id %d: %w", itemID, ErrNotFound)
	}
	delete(s.items, itemID)
	return nil
}

// Types returns the distinct item types the user has rated, sorted.
func (s *InMemoryStore) Types(ctx context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range s.items {
		if item.UserID == userID {
			seen[item.Type] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

// Count returns the number of rateables tracked across all users.
func (s *InMemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// findByName must be called with the lock held.
func (s *InMemoryStore) findByName(userID int64, itemType, name string) (model.Rateable, bool) {
	for _, item := range s.items {
		if item.UserID == userID && item.Type == itemType && strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return model.Rateable{}, false
}
