package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aywang31/marketpulse/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestScoreNeutralFeatures(t *testing.T) {
	h := NewHeuristic()

	res := h.Score(domain.EngineeredFeatures{
		CurrentProbability: fp(0.5),
		SnapshotsCount7d:   10,
	})
	require.Equal(t, 50, res.Score)
	require.Equal(t, domain.ConfidenceMed, res.Confidence)
	require.Equal(t, "insufficient data", res.Explanation)
}

func TestScoreConfidenceTiers(t *testing.T) {
	h := NewHeuristic()

	tests := []struct {
		name    string
		count7d int
		count24 int
		want    domain.Confidence
	}{
		{"dense history", 20, 5, domain.ConfidenceHigh},
		{"weekly only", 20, 4, domain.ConfidenceMed},
		{"moderate", 5, 0, domain.ConfidenceMed},
		{"sparse", 4, 4, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Score(domain.EngineeredFeatures{
				SnapshotsCount7d:  tt.count7d,
				SnapshotsCount24h: tt.count24,
			})
			require.Equal(t, tt.want, res.Confidence)
		})
	}
}

func TestScoreProbabilityTiers(t *testing.T) {
	h := NewHeuristic()

	high := h.Score(domain.EngineeredFeatures{
		CurrentProbability: fp(0.75),
		SnapshotsCount7d:   10,
	})
	require.Equal(t, 60, high.Score)
	require.Contains(t, high.Explanation, "high probability")

	low := h.Score(domain.EngineeredFeatures{
		CurrentProbability: fp(0.25),
		SnapshotsCount7d:   10,
	})
	require.Equal(t, 40, low.Score)
	require.Contains(t, low.Explanation, "low probability")
}

func TestScoreMomentumAndPenalties(t *testing.T) {
	h := NewHeuristic()

	res := h.Score(domain.EngineeredFeatures{
		CurrentProbability: fp(0.5),
		Chg24h:             fp(-0.08),
		Vol24h:             fp(0.06),
		ReversalRisk:       0.7,
		SnapshotsCount7d:   10,
	})
	// 50 -5 (down move) -5 (volatility) -10 (reversal risk) = 30.
	require.Equal(t, 30, res.Score)
	require.Contains(t, res.Explanation, "24h chg -8.0%")
	require.Contains(t, res.Explanation, "high volatility")
	require.Contains(t, res.Explanation, "elevated reversal risk")
}

func TestScoreClampedToRange(t *testing.T) {
	h := NewHeuristic()

	res := h.Score(domain.EngineeredFeatures{
		CurrentProbability: fp(0.2),
		Chg24h:             fp(-0.2),
		Vol24h:             fp(0.2),
		ReversalRisk:       0.9,
		SnapshotsCount7d:   0,
	})
	// 50 -10 -5 -5 -10 -5 = 15, still inside the range, but verify bounds hold
	// for any combination.
	require.GreaterOrEqual(t, res.Score, 0)
	require.LessOrEqual(t, res.Score, 100)
	require.Equal(t, 15, res.Score)
}
