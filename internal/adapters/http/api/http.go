// Package api declares HTTP contracts and route registration helpers for
// the interaction webhook that drives comparison interviews.
package api

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"

	service "github.com/okian/pairrank/internal/app"
	"github.com/okian/pairrank/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// AddItem registers an item and opens its comparison interview.
	AddItem(ctx context.Context, username, itemType, name string) (service.BeginResult, error)

	// RecordAnswer folds one comparison answer into a live interview.
	RecordAnswer(ctx context.Context, username string, itemID, comparedID int64, index int, preferred bool) (service.ContinueResult, error)

	// Read operations expose rating data.
	ListRatings(ctx context.Context, username, itemType string) ([]model.Rateable, error)
	ListTypes(ctx context.Context, username string) ([]string, error)

	// RemoveItem deletes an item and any interview attached to it.
	RemoveItem(ctx context.Context, username, itemType, name string) (model.Rateable, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	interactionsHandler *InteractionsHandler
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	publicKey           ed25519.PublicKey
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithPublicKey enables Ed25519 signature verification on the webhook.
// Without it every request is accepted, which is only safe in tests.
func WithPublicKey(key ed25519.PublicKey) ServerOption {
	return func(s *Server) {
		if key != nil {
			s.publicKey = key
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.interactionsHandler = NewInteractionsHandler(deps, s.publicKey)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/interactions", RequestIDMiddleware(MetricsMiddleware(s.interactionsHandler.HandleInteraction, "interactions")))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

// AddHealthChecker registers a dependency checker on the healthz endpoint.
func (s *Server) AddHealthChecker(name string, checker Checker) {
	s.healthHandler.Add(name, checker)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
