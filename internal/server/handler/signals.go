package handler

import (
	"net/http"
	"time"

	"github.com/aywang31/marketpulse/internal/domain"
)

// SignalHandler serves read access to persisted signals.
type SignalHandler struct {
	signals domain.SignalStore
}

// NewSignalHandler creates a SignalHandler.
func NewSignalHandler(signals domain.SignalStore) *SignalHandler {
	return &SignalHandler{signals: signals}
}

type signalView struct {
	ID          string                    `json:"id"`
	MarketID    string                    `json:"marketId"`
	TS          time.Time                 `json:"ts"`
	Score       int                       `json:"score"`
	Confidence  domain.Confidence         `json:"confidence"`
	Explanation string                    `json:"explanation"`
	Features    domain.EngineeredFeatures `json:"features"`
}

// ListSignals handles GET /api/signals?limit=N: the newest signals across all
// markets, descending by timestamp.
func (h *SignalHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	signals, err := h.signals.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]signalView, 0, len(signals))
	for _, sig := range signals {
		views = append(views, signalView{
			ID:          sig.ID,
			MarketID:    sig.MarketID,
			TS:          sig.TS,
			Score:       sig.Score,
			Confidence:  sig.Confidence,
			Explanation: sig.Explanation,
			Features:    sig.Features,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signals": views,
		"count":   len(views),
	})
}
