package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/pairrank/internal/health"
	"github.com/okian/pairrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthCheckTimeout = 2 * time.Second

// Checker mirrors the health package's per-dependency probe.
type Checker = health.Checker

// HealthHandler handles health check requests.
type HealthHandler struct {
	checkers map[string]Checker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checkers: make(map[string]Checker)}
}

// Add registers a named dependency checker. Not safe to call once the
// server is handling requests.
func (h *HealthHandler) Add(name string, checker Checker) {
	h.checkers[name] = checker
}

// HandleHealth handles GET /healthz requests, probing every registered
// dependency and reporting per-dependency status.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))
	for name, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	writeJSON(w, status, body)
}

// MetricsHandler serves the custom Prometheus registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
