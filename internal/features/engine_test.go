package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/scoring"
	"github.com/aywang31/marketpulse/internal/store/memory"
)

func fp(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, now time.Time, snaps []domain.MarketSnapshot) *Engine {
	t.Helper()
	store := memory.NewSnapshotStore()
	for _, s := range snaps {
		require.NoError(t, store.Append(context.Background(), s))
	}
	e := New(store, scoring.NewHeuristic())
	e.now = func() time.Time { return now }
	return e
}

func TestComputeEmptyHistoryDefault(t *testing.T) {
	e := newTestEngine(t, time.Now(), nil)

	res, err := e.Compute(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, 50, res.Score)
	require.Equal(t, domain.ConfidenceLow, res.Confidence)
	require.Equal(t, "No snapshots available; cannot compute features.", res.Explanation)
	require.InDelta(t, 0.5, res.Features.ReversalRisk, 1e-9)
	require.Nil(t, res.Features.CurrentProbability)
	require.Nil(t, res.Features.Chg24h)
	require.Zero(t, res.Features.SnapshotsCount7d)
}

func TestComputeClampsProbabilities(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snaps := []domain.MarketSnapshot{
		{MarketID: "m1", TS: now.Add(-2 * time.Hour), Probability: fp(-0.3)},
		{MarketID: "m1", TS: now, Probability: fp(1.2)},
	}
	e := newTestEngine(t, now, snaps)

	res, err := e.Compute(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, res.Features.CurrentProbability)
	require.InDelta(t, 1.0, *res.Features.CurrentProbability, 1e-9)

	// chg_1h compares against the clamped value of the -0.3 snapshot.
	require.NotNil(t, res.Features.Chg1h)
	require.InDelta(t, 1.0, *res.Features.Chg1h, 1e-9)
}

func TestVolumeDelta(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("needs two snapshots in window", func(t *testing.T) {
		snaps := []domain.MarketSnapshot{
			{MarketID: "m1", TS: now, Probability: fp(0.5), Volume: fp(100)},
		}
		got := volumeDelta(snaps, now, 24*time.Hour)
		require.Nil(t, got)
	})

	t.Run("never negative", func(t *testing.T) {
		snaps := []domain.MarketSnapshot{
			{MarketID: "m1", TS: now.Add(-2 * time.Hour), Probability: fp(0.5), Volume: fp(5000)},
			{MarketID: "m1", TS: now, Probability: fp(0.5), Volume: fp(3000)},
		}
		got := volumeDelta(snaps, now, 24*time.Hour)
		require.NotNil(t, got)
		require.Zero(t, *got)
	})

	t.Run("missing volumes yield nil", func(t *testing.T) {
		snaps := []domain.MarketSnapshot{
			{MarketID: "m1", TS: now.Add(-2 * time.Hour), Probability: fp(0.5)},
			{MarketID: "m1", TS: now, Probability: fp(0.5), Volume: fp(3000)},
		}
		got := volumeDelta(snaps, now, 24*time.Hour)
		require.Nil(t, got)
	})
}

func TestVolatility(t *testing.T) {
	t.Run("needs two valid probabilities", func(t *testing.T) {
		snaps := []domain.MarketSnapshot{
			{Probability: fp(0.5)},
			{Probability: nil},
		}
		require.Nil(t, volatility(snaps))
	})

	t.Run("uniform steps have zero deviation", func(t *testing.T) {
		snaps := []domain.MarketSnapshot{
			{Probability: fp(0.40)},
			{Probability: fp(0.43)},
			{Probability: fp(0.46)},
		}
		got := volatility(snaps)
		require.NotNil(t, got)
		require.InDelta(t, 0, *got, 1e-9)
	})
}

func TestProbAtPicksNearestSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snaps := []domain.MarketSnapshot{
		{TS: now.Add(-30 * time.Hour), Probability: fp(0.20)},
		{TS: now.Add(-23 * time.Hour), Probability: nil}, // closest but carries no probability
		{TS: now.Add(-20 * time.Hour), Probability: fp(0.40)},
	}

	got := probAt(snaps, now.Add(-24*time.Hour))
	require.NotNil(t, got)
	require.InDelta(t, 0.40, *got, 1e-9)
}

func TestReversalRiskRequiresLargeMove(t *testing.T) {
	f := domain.EngineeredFeatures{
		Chg24h:            fp(0.10), // exactly at the threshold, not above
		Volume24h:         fp(100),
		SnapshotsCount24h: 2,
	}
	require.Zero(t, reversalRisk(f))

	f.Chg24h = nil
	require.Zero(t, reversalRisk(f))
}

func TestReversalRiskThinVolume(t *testing.T) {
	f := domain.EngineeredFeatures{
		Chg24h:            fp(0.20),
		Volume24h:         nil, // no volume signal at all
		SnapshotsCount24h: 0,
	}
	// volNorm 0, countNorm 0 -> 0.6 + 0.4 = 1, capped at 1.
	require.InDelta(t, 1.0, reversalRisk(f), 1e-9)
}

func TestComputeRichHistoryScoresHigh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var snaps []domain.MarketSnapshot

	// 19 older snapshots inside the 7d window, flat at 0.40.
	for i := 0; i < 19; i++ {
		ts := now.Add(-7 * 24 * time.Hour).Add(time.Duration(i+1) * time.Hour)
		snaps = append(snaps, domain.MarketSnapshot{
			MarketID:    "m1",
			TS:          ts,
			Probability: fp(0.40),
			Volume:      fp(1000),
		})
	}

	// 6 snapshots inside the 24h window, stepping up to 0.55 with heavy
	// volume flow. The first sits exactly at the 24h boundary.
	probs := []float64{0.40, 0.43, 0.46, 0.49, 0.52, 0.55}
	vols := []float64{5000, 8000, 11000, 14000, 17000, 20000}
	for i := range probs {
		snaps = append(snaps, domain.MarketSnapshot{
			MarketID:    "m1",
			TS:          now.Add(-24 * time.Hour).Add(time.Duration(i) * 4 * time.Hour),
			Probability: fp(probs[i]),
			Volume:      fp(vols[i]),
		})
	}

	e := newTestEngine(t, now, snaps)
	res, err := e.Compute(context.Background(), "m1")
	require.NoError(t, err)

	f := res.Features
	require.Equal(t, 25, f.SnapshotsCount7d)
	require.Equal(t, 6, f.SnapshotsCount24h)
	require.NotNil(t, f.CurrentProbability)
	require.InDelta(t, 0.55, *f.CurrentProbability, 1e-9)
	require.NotNil(t, f.Chg24h)
	require.InDelta(t, 0.15, *f.Chg24h, 1e-9)
	require.NotNil(t, f.Vol24h)
	require.InDelta(t, 0, *f.Vol24h, 1e-9)
	require.NotNil(t, f.Volume24h)
	require.InDelta(t, 15000, *f.Volume24h, 1e-9)
	require.NotNil(t, f.Volume7d)
	require.InDelta(t, 19000, *f.Volume7d, 1e-9)

	// Large move, but heavy volume and dense sampling keep risk low:
	// 0.6*(1-1) + 0.4*(1-0.6) = 0.16.
	require.InDelta(t, 0.16, f.ReversalRisk, 1e-9)

	// 50 +5 (24h move) +5 (high confidence) = 60.
	require.Equal(t, domain.ConfidenceHigh, res.Confidence)
	require.Equal(t, 60, res.Score)
	require.Contains(t, res.Explanation, "24h chg 15.0%")
}
