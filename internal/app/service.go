// Package service provides the core business service that implements
// the dependencies required by the HTTP API: it orchestrates the
// comparison interviews that place new items into a user's ranking.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/pairrank/internal/adapters/repository"
	"github.com/okian/pairrank/internal/adapters/sessioncache"
	"github.com/okian/pairrank/internal/domain/model"
	"github.com/okian/pairrank/internal/domain/ranking"
	"github.com/okian/pairrank/pkg/logger"
	"github.com/okian/pairrank/pkg/metrics"
)

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	cache  sessioncache.Cache
	engine *ranking.Engine

	// State
	started bool

	// Logging
	logger logger.Logger
}

// BeginResult is the outcome of adding an item. Exactly one of Probe and
// First is meaningful: a probe starts the interview, First reports that
// the item is the user's very first of its type and needs no interview.
type BeginResult struct {
	Item  model.Rateable
	Probe *model.Probe
	First bool
}

// ContinueResult is the outcome of answering one comparison. Probe is the
// next question when the interview continues; Final holds every rescored
// item once it has converged.
type ContinueResult struct {
	Item  model.Rateable
	Probe *model.Probe
	Final []model.Rateable
}

// Stats is a snapshot of service-level counters for the stats endpoint
// and the metrics refresh loop.
type Stats struct {
	ActiveSessions int64 `json:"active_sessions"`
	ItemsTracked   int   `json:"items_tracked"`
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components that were not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	if s.store == nil {
		s.store = repository.NewInMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.cache == nil {
		s.cache = sessioncache.NewInMemoryCache()
		s.logger.Info(ctx, "using in-memory session cache")
	}
	if s.engine == nil {
		s.engine = ranking.New()
	}

	s.started = true
	s.logger.Info(ctx, "rating service started")

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rating service...")

	if closer, ok := s.cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// AddItem registers a new rateable for the user and opens the comparison
// interview that will place it among its peers. The first item of a type
// needs no interview and stays unrated until a second item arrives.
func (s *Service) AddItem(ctx context.Context, username, itemType, name string) (BeginResult, error) {
	itemType = normalize(itemType)
	name = strings.TrimSpace(name)

	user, err := s.store.GetOrCreateUser(ctx, username)
	if err != nil {
		return BeginResult{}, fmt.Errorf("add item: %w", err)
	}

	item, created, err := s.store.CreateItemIfAbsent(ctx, user.ID, itemType, name)
	if err != nil {
		return BeginResult{}, fmt.Errorf("add item: %w", err)
	}
	if !created {
		return BeginResult{}, fmt.Errorf("%q (%s): %w", item.Name, item.Type, ErrItemExists)
	}

	peers, err := s.peersOf(ctx, item)
	if err != nil {
		return BeginResult{}, err
	}
	if len(peers) == 0 {
		s.logger.Info(ctx, "first item of its type, no interview needed",
			logger.String("user", username),
			logger.String("item", item.Name),
			logger.String("type", item.Type),
		)
		return BeginResult{Item: item, First: true}, nil
	}

	session := &model.Session{Item: item, Peers: peers}
	key := sessioncache.Key{UserID: user.ID, ItemID: item.ID}
	stored, err := s.cache.Store(ctx, key, session)
	if err != nil {
		return BeginResult{}, fmt.Errorf("add item: %w", err)
	}
	if !stored {
		// A live interview for this key already exists; resume it
		// rather than clobbering its answers.
		existing, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			return BeginResult{}, fmt.Errorf("add item: %w", err)
		}
		if ok {
			session = existing
		}
	}

	probe, ok := s.engine.NextProbe(session.Peers, session.Outcomes)
	if !ok {
		// Converged without questions; only possible with a degenerate
		// history, but finalize rather than stranding the session.
		final, err := s.finalize(ctx, user.ID, key, session)
		if err != nil {
			return BeginResult{}, err
		}
		for _, placed := range final {
			if placed.ID == item.ID {
				item = placed
				break
			}
		}
		return BeginResult{Item: item}, nil
	}

	metrics.RecordSessionStarted()
	metrics.RecordComparisonAsked()
	s.logger.Info(ctx, "interview started",
		logger.String("user", username),
		logger.String("item", item.Name),
		logger.Int("peers", len(peers)),
	)
	return BeginResult{Item: item, Probe: &probe}, nil
}

// RecordAnswer folds one comparison answer into the live interview for
// (user, itemID) and either returns the next probe or finalizes the
// placement. preferred reports that the user chose the existing peer.
func (s *Service) RecordAnswer(ctx context.Context, username string, itemID, comparedID int64, index int, preferred bool) (ContinueResult, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return ContinueResult{}, fmt.Errorf("record answer: %w", err)
	}
	item, err := s.store.ItemByID(ctx, user.ID, itemID)
	if err != nil {
		return ContinueResult{}, fmt.Errorf("record answer: %w", err)
	}

	key := sessioncache.Key{UserID: user.ID, ItemID: item.ID}
	session, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return ContinueResult{}, fmt.Errorf("record answer: %w", err)
	}
	if !ok {
		return ContinueResult{}, fmt.Errorf("%q: %w", item.Name, ErrNoSession)
	}

	session.Outcomes = append(session.Outcomes, model.Outcome{
		ItemID:    comparedID,
		Index:     index,
		Preferred: preferred,
	})

	probe, more := s.engine.NextProbe(session.Peers, session.Outcomes)
	if more {
		if err := s.cache.Update(ctx, key, session); err != nil {
			return ContinueResult{}, fmt.Errorf("record answer: %w", err)
		}
		metrics.RecordComparisonAsked()
		return ContinueResult{Item: item, Probe: &probe}, nil
	}

	final, err := s.finalize(ctx, user.ID, key, session)
	if err != nil {
		return ContinueResult{}, err
	}
	s.logger.Info(ctx, "interview converged",
		logger.String("user", username),
		logger.String("item", item.Name),
		logger.Int("comparisons", len(session.Outcomes)),
	)
	return ContinueResult{Item: item, Final: final}, nil
}

// finalize rescores the whole peer list around the converged insertion
// point, persists every new value, and evicts the session. Persisting
// before evicting means a crash in between leaves a harmless stale
// session that TTL will reap.
func (s *Service) finalize(ctx context.Context, userID int64, key sessioncache.Key, session *model.Session) ([]model.Rateable, error) {
	final := s.engine.Rescore(session.Item, session.Peers, session.Outcomes)
	if err := s.store.UpdateValues(ctx, userID, final); err != nil {
		return nil, fmt.Errorf("finalize interview: %w", err)
	}
	if err := s.cache.Remove(ctx, key); err != nil {
		return nil, fmt.Errorf("finalize interview: %w", err)
	}
	metrics.RecordSessionCompleted()
	metrics.RecordInterviewLength(len(session.Outcomes))
	return final, nil
}

// ListRatings returns the user's items of itemType ascending by value.
func (s *Service) ListRatings(ctx context.Context, username, itemType string) ([]model.Rateable, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	items, err := s.store.ItemsByType(ctx, user.ID, normalize(itemType))
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return items, nil
}

// ListTypes returns the distinct item types the user has rated.
func (s *Service) ListTypes(ctx context.Context, username string) ([]string, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	types, err := s.store.Types(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	return types, nil
}

// RemoveItem deletes one of the user's items along with any live
// interview for it. Remaining peers keep their values; ratings are
// relative, so a gap does not invalidate the ordering.
func (s *Service) RemoveItem(ctx context.Context, username, itemType, name string) (model.Rateable, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return model.Rateable{}, fmt.Errorf("remove item: %w", err)
	}
	item, err := s.store.ItemByName(ctx, user.ID, normalize(itemType), strings.TrimSpace(name))
	if err != nil {
		return model.Rateable{}, fmt.Errorf("remove item: %w", err)
	}
	if err := s.store.DeleteItem(ctx, user.ID, item.ID); err != nil {
		return model.Rateable{}, fmt.Errorf("remove item: %w", err)
	}
	if err := s.cache.Remove(ctx, sessioncache.Key{UserID: user.ID, ItemID: item.ID}); err != nil {
		s.logger.Warn(ctx, "failed to evict session for removed item",
			logger.Int64("item_id", item.ID),
			logger.Error(err),
		)
	}
	return item, nil
}

// GetStats returns a snapshot of service counters.
func (s *Service) GetStats(ctx context.Context) Stats {
	return Stats{
		ActiveSessions: s.cache.Size(ctx),
		ItemsTracked:   s.store.Count(ctx),
	}
}

// peersOf returns every item sharing the new item's type, excluding the
// item itself, in the store's value-ascending order.
func (s *Service) peersOf(ctx context.Context, item model.Rateable) ([]model.Rateable, error) {
	all, err := s.store.ItemsByType(ctx, item.UserID, item.Type)
	if err != nil {
		return nil, fmt.Errorf("load peers: %w", err)
	}
	peers := make([]model.Rateable, 0, len(all))
	for _, peer := range all {
		if peer.ID != item.ID {
			peers = append(peers, peer)
		}
	}
	return peers, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsNotFound reports whether err is the store's missing-row kind, so the
// transport can phrase it without importing the repository package.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
