package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aywang31/marketpulse/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore backed by PostgreSQL. The
// table is append-only; rows are never updated or deleted by the pipeline.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore using the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Append inserts one snapshot row.
func (s *SnapshotStore) Append(ctx context.Context, snap domain.MarketSnapshot) error {
	query := `
		INSERT INTO market_snapshots
			(market_id, ts, probability, price_yes, price_no, volume, liquidity, spread, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		snap.MarketID, snap.TS, snap.Probability, snap.PriceYes, snap.PriceNo,
		snap.Volume, snap.Liquidity, snap.Spread, snap.Raw,
	)
	if err != nil {
		return fmt.Errorf("postgres: append snapshot for market %s: %w", snap.MarketID, err)
	}
	return nil
}

// ListSince returns the market's snapshots with ts >= since, ascending by ts.
func (s *SnapshotStore) ListSince(ctx context.Context, marketID string, since time.Time) ([]domain.MarketSnapshot, error) {
	query := `
		SELECT id, market_id, ts, probability, price_yes, price_no, volume, liquidity, spread, raw
		FROM market_snapshots
		WHERE market_id = $1 AND ts >= $2
		ORDER BY ts ASC`

	rows, err := s.pool.Query(ctx, query, marketID, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots for market %s: %w", marketID, err)
	}
	defer rows.Close()

	var snaps []domain.MarketSnapshot
	for rows.Next() {
		var snap domain.MarketSnapshot
		err := rows.Scan(
			&snap.ID, &snap.MarketID, &snap.TS, &snap.Probability, &snap.PriceYes,
			&snap.PriceNo, &snap.Volume, &snap.Liquidity, &snap.Spread, &snap.Raw,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshots: %w", err)
	}
	return snaps, nil
}
