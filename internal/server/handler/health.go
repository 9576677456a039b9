package handler

import (
	"net/http"
	"time"

	"github.com/aywang31/marketpulse/internal/domain"
)

// HealthHandler serves liveness checks.
type HealthHandler struct {
	markets   domain.MarketStore
	startedAt time.Time
	version   string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(markets domain.MarketStore, version string) *HealthHandler {
	return &HealthHandler{
		markets:   markets,
		startedAt: time.Now(),
		version:   version,
	}
}

// HealthCheck handles GET /api/health. It reports uptime and the tracked
// market count as a cheap storage round trip.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}

	if n, err := h.markets.Count(r.Context()); err != nil {
		resp["status"] = "degraded"
		resp["storage_error"] = err.Error()
	} else {
		resp["markets"] = n
	}

	status := http.StatusOK
	if resp["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
