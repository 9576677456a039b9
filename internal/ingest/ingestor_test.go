package ingest

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/source"
	"github.com/aywang31/marketpulse/internal/store/memory"
)

// stubAdapter returns canned markets or a canned error.
type stubAdapter struct {
	src     domain.Source
	markets []domain.NormalizedMarket
	err     error
}

func (s *stubAdapter) Source() domain.Source { return s.src }

func (s *stubAdapter) Fetch(_ context.Context, limit int) ([]domain.NormalizedMarket, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.markets) > limit {
		return s.markets[:limit], nil
	}
	return s.markets, nil
}

func nm(src domain.Source, externalID, title string, prob float64) domain.NormalizedMarket {
	return domain.NormalizedMarket{
		Source:      src,
		ExternalID:  externalID,
		Title:       title,
		Status:      "active",
		Probability: &prob,
	}
}

func newTestIngestor(adapters []source.Adapter) (*Ingestor, *memory.MarketStore, *memory.SnapshotStore) {
	markets := memory.NewMarketStore()
	snapshots := memory.NewSnapshotStore()
	ing := New(markets, snapshots, adapters, nil, 50, slog.New(slog.DiscardHandler))
	return ing, markets, snapshots
}

func TestIngestAllPersistsAllSources(t *testing.T) {
	ing, markets, _ := newTestIngestor([]source.Adapter{
		&stubAdapter{src: domain.SourcePolymarket, markets: []domain.NormalizedMarket{
			nm(domain.SourcePolymarket, "pm-1", "A", 0.5),
			nm(domain.SourcePolymarket, "pm-2", "B", 0.6),
		}},
		&stubAdapter{src: domain.SourceKalshi, markets: []domain.NormalizedMarket{
			nm(domain.SourceKalshi, "KA-1", "C", 0.7),
		}},
	})

	res := ing.IngestAll(context.Background())
	require.True(t, res.Success)
	require.Equal(t, 3, res.TotalProcessed)
	require.Equal(t, 2, res.BySource[domain.SourcePolymarket])
	require.Equal(t, 1, res.BySource[domain.SourceKalshi])
	require.Empty(t, res.Errors)

	n, err := markets.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestIngestAllIsolatesSourceFailure(t *testing.T) {
	ing, _, _ := newTestIngestor([]source.Adapter{
		&stubAdapter{src: domain.SourcePolymarket, markets: []domain.NormalizedMarket{
			nm(domain.SourcePolymarket, "pm-1", "A", 0.5),
			nm(domain.SourcePolymarket, "pm-2", "B", 0.6),
			nm(domain.SourcePolymarket, "pm-3", "C", 0.7),
		}},
		&stubAdapter{src: domain.SourceKalshi, err: errors.New("connection refused")},
	})

	res := ing.IngestAll(context.Background())
	require.True(t, res.Success)
	require.Equal(t, 3, res.TotalProcessed)
	require.Equal(t, 3, res.BySource[domain.SourcePolymarket])
	require.Equal(t, 0, res.BySource[domain.SourceKalshi])

	require.Len(t, res.Errors, 1)
	require.Equal(t, domain.ScopeSourceFetch, res.Errors[0].Scope)
	require.Equal(t, "KALSHI fetch failed: connection refused", res.Errors[0].Error())
}

func TestIngestAllEmptyHealthyRunIsFailure(t *testing.T) {
	ing, _, _ := newTestIngestor([]source.Adapter{
		&stubAdapter{src: domain.SourcePolymarket},
		&stubAdapter{src: domain.SourceKalshi},
	})

	res := ing.IngestAll(context.Background())
	require.False(t, res.Success)
	require.Zero(t, res.TotalProcessed)
	require.Empty(t, res.Errors)
	require.Equal(t, 0, res.BySource[domain.SourcePolymarket])
	require.Equal(t, 0, res.BySource[domain.SourceKalshi])
}

func TestIngestTwiceUpsertsMarketAndAppendsSnapshots(t *testing.T) {
	adapter := &stubAdapter{src: domain.SourcePolymarket, markets: []domain.NormalizedMarket{
		nm(domain.SourcePolymarket, "pm-1", "Original title", 0.5),
	}}
	ing, markets, snapshots := newTestIngestor([]source.Adapter{adapter})

	ctx := context.Background()
	res := ing.IngestAll(ctx)
	require.True(t, res.Success)

	// Same market again with a refreshed title.
	adapter.markets[0].Title = "Updated title"
	res = ing.IngestAll(ctx)
	require.True(t, res.Success)

	n, err := markets.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	stored, err := markets.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Updated title", stored[0].Title)

	// Snapshots are append-only: two runs, two rows.
	require.Equal(t, 2, snapshots.CountFor(stored[0].ID))
}

func TestIngestDefaultsEmptyStatusToActive(t *testing.T) {
	rec := nm(domain.SourcePolymarket, "pm-1", "A", 0.5)
	rec.Status = ""
	ing, markets, _ := newTestIngestor([]source.Adapter{
		&stubAdapter{src: domain.SourcePolymarket, markets: []domain.NormalizedMarket{rec}},
	})

	res := ing.IngestAll(context.Background())
	require.True(t, res.Success)

	stored, err := markets.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "active", stored[0].Status)
}

func TestIngestSourceUnknownSource(t *testing.T) {
	ing, _, _ := newTestIngestor(nil)

	res := ing.IngestSource(context.Background(), domain.Source("WHATEVER"))
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	require.Equal(t, domain.ScopeSourceFetch, res.Errors[0].Scope)
}

func TestIngestSourceRunsSingleAdapter(t *testing.T) {
	ing, _, _ := newTestIngestor([]source.Adapter{
		&stubAdapter{src: domain.SourcePolymarket, markets: []domain.NormalizedMarket{
			nm(domain.SourcePolymarket, "pm-1", "A", 0.5),
		}},
		&stubAdapter{src: domain.SourceKalshi, err: errors.New("should not be called")},
	})

	res := ing.IngestSource(context.Background(), domain.SourcePolymarket)
	require.True(t, res.Success)
	require.Equal(t, 1, res.TotalProcessed)
	require.Empty(t, res.Errors)
}
