package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aywang31/marketpulse/internal/domain"
)

// SignalStore implements domain.SignalStore backed by PostgreSQL. Engineered
// features are stored as a JSONB document next to the scalar columns.
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a SignalStore using the given pool.
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Insert persists one signal. Signals are immutable once written.
func (s *SignalStore) Insert(ctx context.Context, sig domain.MarketSignal) error {
	features, err := json.Marshal(sig.Features)
	if err != nil {
		return fmt.Errorf("postgres: marshal signal features: %w", err)
	}

	id := sig.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO market_signals (id, market_id, ts, score, confidence, explanation, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.pool.Exec(ctx, query,
		id, sig.MarketID, sig.TS, sig.Score, sig.Confidence, sig.Explanation, features,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert signal for market %s: %w", sig.MarketID, err)
	}
	return nil
}

// ExistsSince reports whether the market has a signal with ts >= since.
func (s *SignalStore) ExistsSince(ctx context.Context, marketID string, since time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM market_signals WHERE market_id = $1 AND ts >= $2)`,
		marketID, since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check recent signal for market %s: %w", marketID, err)
	}
	return exists, nil
}

// ListRecent returns the newest signals across all markets, descending by ts.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]domain.MarketSignal, error) {
	query := `
		SELECT id, market_id, ts, score, confidence, explanation, features
		FROM market_signals
		ORDER BY ts DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.MarketSignal
	for rows.Next() {
		var (
			sig      domain.MarketSignal
			features []byte
		)
		err := rows.Scan(&sig.ID, &sig.MarketID, &sig.TS, &sig.Score, &sig.Confidence, &sig.Explanation, &features)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan signal: %w", err)
		}
		if len(features) > 0 {
			if err := json.Unmarshal(features, &sig.Features); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal signal features: %w", err)
			}
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate signals: %w", err)
	}
	return signals, nil
}
