package service

import (
	"github.com/okian/pairrank/internal/adapters/repository"
	"github.com/okian/pairrank/internal/adapters/sessioncache"
	"github.com/okian/pairrank/internal/domain/ranking"
	"github.com/okian/pairrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the durable item store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache injects the session cache holding in-flight interviews.
func WithCache(cache sessioncache.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithEngine injects the comparison engine.
func WithEngine(engine *ranking.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
