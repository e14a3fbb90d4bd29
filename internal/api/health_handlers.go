package api

import (
	"context"
	"net/http"
	"time"

	"github.com/spilleu/feedengine/internal/health"
)

// readyTimeout bounds each dependency check on the readiness probe.
const readyTimeout = 2 * time.Second

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	checkers map[string]health.Checker
}

// NewHealthHandlers creates health handlers over the given named
// dependency checkers. The map may be empty.
func NewHealthHandlers(checkers map[string]health.Checker) *HealthHandlers {
	return &HealthHandlers{checkers: checkers}
}

// GetHealth handles GET /health - liveness. Always healthy while the
// process serves requests.
func (h *HealthHandlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r.Context(), http.StatusOK, map[string]string{"status": "healthy"})
}

// GetReady handles GET /ready - readiness. Checks each configured
// dependency and reports per-dependency status.
func (h *HealthHandlers) GetReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))

	for name, checker := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		if err != nil {
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := map[string]interface{}{
		"status":       statusWord(status),
		"dependencies": deps,
	}
	WriteJSON(w, r.Context(), status, body)
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ready"
	}
	return "degraded"
}
