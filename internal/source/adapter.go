// Package source contains one adapter per external provider. Each adapter
// fetches raw provider payloads and normalizes them into the common
// domain.NormalizedMarket shape consumed by the ingestion orchestrator.
package source

import (
	"context"
	"math"

	"github.com/aywang31/marketpulse/internal/domain"
)

// Adapter fetches and normalizes markets from one provider.
//
// Fetch paginates until limit normalized records are produced or the provider
// signals end-of-data. A page-level error aborts the whole call: adapters
// never return partial success silently. Missing or malformed numeric fields
// are omitted from the output, never an error.
type Adapter interface {
	Source() domain.Source
	Fetch(ctx context.Context, limit int) ([]domain.NormalizedMarket, error)
}

func ptr(v float64) *float64 { return &v }

// finite returns a pointer to v, or nil when v is NaN or infinite.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// first returns the first non-nil value, or nil.
func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
