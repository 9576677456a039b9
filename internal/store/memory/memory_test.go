package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aywang31/marketpulse/internal/domain"
)

func TestMarketStoreUpsertKeyedBySourceAndExternalID(t *testing.T) {
	store := NewMarketStore()
	ctx := context.Background()

	first, err := store.Upsert(ctx, domain.Market{
		Source:     domain.SourcePolymarket,
		ExternalID: "x1",
		Title:      "one",
		Status:     "active",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// Same key refreshes in place and keeps the ID.
	second, err := store.Upsert(ctx, domain.Market{
		Source:     domain.SourcePolymarket,
		ExternalID: "x1",
		Title:      "one updated",
		Status:     "closed",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "one updated", second.Title)

	// Same external ID on a different source is a distinct market.
	other, err := store.Upsert(ctx, domain.Market{
		Source:     domain.SourceKalshi,
		ExternalID: "x1",
		Title:      "kalshi one",
		Status:     "active",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	active, err := store.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, other.ID, active[0].ID)
}

func TestMarketStoreGetByIDNotFound(t *testing.T) {
	store := NewMarketStore()
	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStoreListSinceOrdersAscending(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{-2 * time.Hour, -30 * time.Hour, -10 * time.Minute} {
		require.NoError(t, store.Append(ctx, domain.MarketSnapshot{
			MarketID: "m1",
			TS:       base.Add(offset),
		}))
	}

	snaps, err := store.ListSince(ctx, "m1", base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.True(t, snaps[0].TS.Before(snaps[1].TS))
}

func TestSignalStoreExistsSince(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, domain.MarketSignal{MarketID: "m1", TS: ts, Score: 70}))

	ok, err := store.ExistsSince(ctx, "m1", ts.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.ExistsSince(ctx, "m1", ts.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.ExistsSince(ctx, "other", ts.Add(-time.Minute))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignalStoreListRecentDescendingWithLimit(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, domain.MarketSignal{
			MarketID: "m1",
			TS:       base.Add(time.Duration(i) * time.Minute),
			Score:    i,
		}))
	}

	recent, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, 4, recent[0].Score)
	require.True(t, recent[0].TS.After(recent[2].TS))
}
