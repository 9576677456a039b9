// Package scoring maps engineered features to tradeability scores and runs
// the cooldown-gated scoring pass over all markets.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/aywang31/marketpulse/internal/domain"
)

// Heuristic is the shipped domain.Scorer: a fixed rule table over engineered
// features. It is pure and deterministic; a model-backed scorer satisfying
// the same interface is a drop-in replacement.
type Heuristic struct{}

// NewHeuristic creates the rule-based scorer.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Score starts from a neutral 50 and applies each matching rule in order,
// collecting an explanation phrase per rule. The result is clamped to
// [0,100].
func (h *Heuristic) Score(f domain.EngineeredFeatures) domain.ScoreResult {
	confidence := domain.ConfidenceLow
	if f.SnapshotsCount7d >= 20 && f.SnapshotsCount24h >= 5 {
		confidence = domain.ConfidenceHigh
	} else if f.SnapshotsCount7d >= 5 {
		confidence = domain.ConfidenceMed
	}

	score := 50
	var parts []string

	if f.CurrentProbability != nil {
		if *f.CurrentProbability > 0.7 {
			score += 10
			parts = append(parts, "high probability")
		} else if *f.CurrentProbability < 0.3 {
			score -= 10
			parts = append(parts, "low probability")
		}
	}

	if f.Chg24h != nil && math.Abs(*f.Chg24h) > 0.05 {
		if *f.Chg24h > 0 {
			score += 5
		} else {
			score -= 5
		}
		parts = append(parts, fmt.Sprintf("24h chg %.1f%%", *f.Chg24h*100))
	}

	if f.Vol24h != nil && *f.Vol24h > 0.05 {
		score -= 5
		parts = append(parts, "high volatility")
	}

	if f.ReversalRisk > 0.5 {
		score -= 10
		parts = append(parts, "elevated reversal risk")
	}

	switch confidence {
	case domain.ConfidenceHigh:
		score += 5
	case domain.ConfidenceLow:
		score -= 5
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	explanation := "insufficient data"
	if len(parts) > 0 {
		explanation = strings.Join(parts, "; ")
	}

	return domain.ScoreResult{
		Score:       score,
		Confidence:  confidence,
		Explanation: explanation,
	}
}
