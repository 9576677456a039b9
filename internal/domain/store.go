package domain

import (
	"context"
	"time"
)

// MarketStore persists market identities.
type MarketStore interface {
	// Upsert inserts the market or, if (source, external_id) already exists,
	// refreshes title/url/category/status/updated_at. It returns the stored
	// row including its ID. The write must be a single atomic conditional
	// statement: overlapping ingestion runs may race on the same key.
	Upsert(ctx context.Context, m Market) (Market, error)
	GetByID(ctx context.Context, id string) (Market, error)
	// List returns markets, restricted to status "active" when activeOnly.
	List(ctx context.Context, activeOnly bool) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// SnapshotStore persists the append-only snapshot time series.
type SnapshotStore interface {
	Append(ctx context.Context, s MarketSnapshot) error
	// ListSince returns snapshots for the market with ts >= since, ordered
	// ascending by ts.
	ListSince(ctx context.Context, marketID string, since time.Time) ([]MarketSnapshot, error)
}

// SignalStore persists scoring results.
type SignalStore interface {
	Insert(ctx context.Context, sig MarketSignal) error
	// ExistsSince reports whether the market has any signal with ts >= since.
	// It backs the scoring cooldown gate.
	ExistsSince(ctx context.Context, marketID string, since time.Time) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]MarketSignal, error)
}
