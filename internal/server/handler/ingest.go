package handler

import (
	"net/http"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/ingest"
)

// IngestHandler exposes ingestion triggers: the scheduler-facing cron route
// and a per-source manual trigger.
type IngestHandler struct {
	ingestor *ingest.Ingestor
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingestor *ingest.Ingestor) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// ingestResponse is the wire shape shared by both ingestion routes. A run in
// which every provider returned an empty healthy page reports success=false,
// so schedulers surface silent pipeline stalls.
type ingestResponse struct {
	Success        bool                  `json:"success"`
	TotalProcessed int                   `json:"totalProcessed"`
	BySource       map[domain.Source]int `json:"bySource"`
	Errors         []string              `json:"errors"`
}

// TriggerAll handles GET /api/cron/ingest: one full ingestion run across all
// providers.
func (h *IngestHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	res := h.ingestor.IngestAll(r.Context())
	writeIngestResult(w, res)
}

// TriggerSource handles POST /api/ingest/{source}: a single-provider run.
func (h *IngestHandler) TriggerSource(w http.ResponseWriter, r *http.Request) {
	src, ok := domain.ParseSource(r.PathValue("source"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source "+r.PathValue("source"))
		return
	}

	res := h.ingestor.IngestSource(r.Context(), src)
	writeIngestResult(w, res)
}

func writeIngestResult(w http.ResponseWriter, res ingest.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ingestResponse{
		Success:        res.Success,
		TotalProcessed: res.TotalProcessed,
		BySource:       res.BySource,
		Errors:         domain.ErrorStrings(res.Errors),
	})
}
