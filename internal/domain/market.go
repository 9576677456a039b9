// Package domain defines the core entities of the market pipeline and the
// repository interfaces they are persisted through. All other packages depend
// on domain; domain depends on nothing but the standard library.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Source identifies an external prediction-market provider.
type Source string

const (
	SourcePolymarket Source = "POLYMARKET"
	SourceKalshi     Source = "KALSHI"
)

// Sources lists every configured provider, in the order they are reported in
// ingestion results.
var Sources = []Source{SourcePolymarket, SourceKalshi}

// ParseSource maps a case-insensitive provider name to its Source tag.
func ParseSource(s string) (Source, bool) {
	switch {
	case strings.EqualFold(s, string(SourcePolymarket)):
		return SourcePolymarket, true
	case strings.EqualFold(s, string(SourceKalshi)):
		return SourceKalshi, true
	default:
		return "", false
	}
}

// Market is the identity of a tracked prediction market. (Source, ExternalID)
// is globally unique; everything else is refreshed on each ingestion run.
// Markets are never deleted by the pipeline.
type Market struct {
	ID         string
	Source     Source
	ExternalID string
	Title      string
	URL        *string
	Category   *string
	Status     string // free-text: "active", "closed", "inactive", ...
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MarketSnapshot is one observation of a market's implied state at a point in
// time. Snapshots are append-only and never deduplicated: ingesting the same
// market twice produces two rows by design.
type MarketSnapshot struct {
	ID          int64
	MarketID    string
	TS          time.Time
	Probability *float64 // expected [0,1] but not guaranteed at capture time
	PriceYes    *float64
	PriceNo     *float64
	Volume      *float64
	Liquidity   *float64
	Spread      *float64
	Raw         json.RawMessage // opaque provider payload for audit
}

// NormalizedMarket is the common shape every source adapter produces.
// Numeric fields are best-effort: adapters leave them nil when the provider
// omits or mangles them rather than failing the fetch.
type NormalizedMarket struct {
	Source      Source
	ExternalID  string
	Title       string
	URL         *string
	Category    *string
	Status      string
	Probability *float64
	PriceYes    *float64
	PriceNo     *float64
	Volume      *float64
	Liquidity   *float64
	Spread      *float64
	Raw         json.RawMessage
}

// Confidence classifies how much snapshot history backs a score.
type Confidence string

const (
	ConfidenceLow  Confidence = "LOW"
	ConfidenceMed  Confidence = "MED"
	ConfidenceHigh Confidence = "HIGH"
)

// MarketSignal is a persisted scoring result. Immutable once created; creation
// is gated by the scoring cooldown.
type MarketSignal struct {
	ID          string
	MarketID    string
	TS          time.Time
	Score       int // [0,100]
	Confidence  Confidence
	Explanation string
	Features    EngineeredFeatures
}
