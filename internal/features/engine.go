// Package features derives windowed statistics from a market's snapshot
// history: probability deltas over fixed horizons, first-difference
// volatility, volume flow, and a reversal-risk heuristic.
package features

import (
	"context"
	"math"
	"time"

	"github.com/aywang31/marketpulse/internal/domain"
)

const (
	window1h  = time.Hour
	window24h = 24 * time.Hour
	window7d  = 7 * 24 * time.Hour
)

// noHistoryExplanation is returned verbatim when a market has no snapshots in
// the trailing 7-day window.
const noHistoryExplanation = "No snapshots available; cannot compute features."

// Engine computes engineered features over a market's trailing 7-day snapshot
// history and delegates scoring to the injected Scorer.
type Engine struct {
	snapshots domain.SnapshotStore
	scorer    domain.Scorer

	now func() time.Time // injectable for tests
}

// New creates an Engine reading from the given snapshot store and scoring
// with the given Scorer.
func New(snapshots domain.SnapshotStore, scorer domain.Scorer) *Engine {
	return &Engine{
		snapshots: snapshots,
		scorer:    scorer,
		now:       time.Now,
	}
}

// Compute loads the market's snapshots from the trailing 7-day window and
// returns the engineered features together with the score derived from them.
//
// With no history it returns the fixed empty default: score 50, LOW
// confidence, all feature fields nil except reversal risk 0.5.
func (e *Engine) Compute(ctx context.Context, marketID string) (domain.FeatureResult, error) {
	now := e.now()

	snaps, err := e.snapshots.ListSince(ctx, marketID, now.Add(-window7d))
	if err != nil {
		return domain.FeatureResult{}, err
	}

	if len(snaps) == 0 {
		return domain.FeatureResult{
			Features:    domain.EngineeredFeatures{ReversalRisk: 0.5},
			Score:       50,
			Confidence:  domain.ConfidenceLow,
			Explanation: noHistoryExplanation,
		}, nil
	}

	f := engineer(snaps, now)
	res := e.scorer.Score(f)

	return domain.FeatureResult{
		Features:    f,
		Score:       res.Score,
		Confidence:  res.Confidence,
		Explanation: res.Explanation,
	}, nil
}

// engineer computes all feature fields from snapshots ordered ascending by ts.
func engineer(snaps []domain.MarketSnapshot, now time.Time) domain.EngineeredFeatures {
	currentProb := clamp01(snaps[len(snaps)-1].Probability)

	t24h := now.Add(-window24h)

	prob1h := probAt(snaps, now.Add(-window1h))
	prob24h := probAt(snaps, t24h)
	prob7d := probAt(snaps, now.Add(-window7d))

	var snaps24h []domain.MarketSnapshot
	for _, s := range snaps {
		if !s.TS.Before(t24h) {
			snaps24h = append(snaps24h, s)
		}
	}

	f := domain.EngineeredFeatures{
		Chg1h:              delta(currentProb, prob1h),
		Chg24h:             delta(currentProb, prob24h),
		Chg7d:              delta(currentProb, prob7d),
		Vol24h:             volatility(snaps24h),
		Vol7d:              volatility(snaps),
		Volume24h:          volumeDelta(snaps, now, window24h),
		Volume7d:           volumeDelta(snaps, now, window7d),
		SnapshotsCount24h:  len(snaps24h),
		SnapshotsCount7d:   len(snaps),
		CurrentProbability: currentProb,
	}
	f.ReversalRisk = reversalRisk(f)
	return f
}

// probAt finds the clamped probability of the snapshot whose ts is closest in
// absolute time to target, considering only snapshots carrying a probability.
// Ties resolve to the first snapshot encountered in ascending order; no
// interpolation between bracketing points.
func probAt(snaps []domain.MarketSnapshot, target time.Time) *float64 {
	var best *domain.MarketSnapshot
	bestDiff := time.Duration(math.MaxInt64)

	for i := range snaps {
		if snaps[i].Probability == nil {
			continue
		}
		diff := snaps[i].TS.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = &snaps[i]
		}
	}
	if best == nil {
		return nil
	}
	return clamp01(best.Probability)
}

// delta returns cur - prev, or nil when either side is missing.
func delta(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	d := *cur - *prev
	return &d
}

// volatility is the population standard deviation of the first-difference
// series of clamped probabilities. At least 2 valid points are required.
func volatility(snaps []domain.MarketSnapshot) *float64 {
	var valid []float64
	for _, s := range snaps {
		if p := clamp01(s.Probability); p != nil {
			valid = append(valid, *p)
		}
	}
	if len(valid) < 2 {
		return nil
	}

	changes := make([]float64, 0, len(valid)-1)
	for i := 1; i < len(valid); i++ {
		changes = append(changes, valid[i]-valid[i-1])
	}

	var mean float64
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	var variance float64
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))

	sd := math.Sqrt(variance)
	return &sd
}

// volumeDelta is latest volume minus earliest volume among snapshots inside
// the window, clamped to >= 0 (a proxy for traded volume). It requires at
// least 2 snapshots in the window and finite volumes at both ends.
func volumeDelta(snaps []domain.MarketSnapshot, now time.Time, window time.Duration) *float64 {
	cutoff := now.Add(-window)

	var inWindow []domain.MarketSnapshot
	for _, s := range snaps {
		if !s.TS.Before(cutoff) && !s.TS.After(now) {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) < 2 {
		return nil
	}

	firstVol := inWindow[0].Volume
	lastVol := inWindow[len(inWindow)-1].Volume
	if firstVol == nil || lastVol == nil ||
		math.IsNaN(*firstVol) || math.IsInf(*firstVol, 0) ||
		math.IsNaN(*lastVol) || math.IsInf(*lastVol, 0) {
		return nil
	}

	d := *lastVol - *firstVol
	if d < 0 {
		d = 0
	}
	return &d
}

// reversalRisk flags a large 24h move backed by thin volume or sparse
// sampling. It stays 0 unless |chg_24h| exceeds 0.10.
func reversalRisk(f domain.EngineeredFeatures) float64 {
	if f.Chg24h == nil || math.Abs(*f.Chg24h) <= 0.10 {
		return 0
	}

	volNorm := 0.0
	if f.Volume24h != nil && *f.Volume24h > 0 {
		volNorm = math.Min(1, *f.Volume24h/10000)
	}
	countNorm := math.Min(1, float64(f.SnapshotsCount24h)/10)

	return math.Min(1, 0.6*(1-volNorm)+0.4*(1-countNorm))
}

// clamp01 clamps a probability into [0,1]. Non-finite values become nil.
func clamp01(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return &v
}
