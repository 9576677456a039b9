package handler

import (
	"net/http"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/scoring"
)

// ScoreHandler exposes the scheduler-facing scoring trigger.
type ScoreHandler struct {
	orchestrator *scoring.Orchestrator
	activeOnly   bool
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(orchestrator *scoring.Orchestrator, activeOnly bool) *ScoreHandler {
	return &ScoreHandler{orchestrator: orchestrator, activeOnly: activeOnly}
}

type scoreResponse struct {
	Success       bool     `json:"success"`
	MarketsScored int      `json:"marketsScored"`
	Errors        []string `json:"errors"`
}

// TriggerScoring handles GET /api/cron/score: one scoring pass over all
// eligible markets.
func (h *ScoreHandler) TriggerScoring(w http.ResponseWriter, r *http.Request) {
	res, err := h.orchestrator.ScoreAll(r.Context(), h.activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, scoreResponse{
		Success:       res.Success,
		MarketsScored: res.MarketsScored,
		Errors:        domain.ErrorStrings(res.Errors),
	})
}
