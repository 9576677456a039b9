package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aywang31/marketpulse/internal/domain"
)

// MarketStore implements domain.MarketStore backed by PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore using the given pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, source, external_id, title, url, category, status, created_at, updated_at`

// Upsert inserts the market or refreshes its mutable columns when
// (source, external_id) already exists. The conflict target makes the write a
// single atomic statement, so concurrent runs upserting the same key cannot
// produce duplicates.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) (domain.Market, error) {
	query := `
		INSERT INTO markets (id, source, external_id, title, url, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING ` + marketCols

	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(), m.Source, m.ExternalID, m.Title, m.URL, m.Category, m.Status,
	)
	stored, err := scanMarket(row)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: upsert market %s/%s: %w", m.Source, m.ExternalID, err)
	}
	return stored, nil
}

// GetByID fetches a market by its internal ID.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE id = $1`

	m, err := scanMarket(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets ordered by creation time, restricted to status
// "active" when activeOnly.
func (s *MarketStore) List(ctx context.Context, activeOnly bool) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets`
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate markets: %w", err)
	}
	return markets, nil
}

// Count returns the total number of tracked markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return n, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID, &m.Source, &m.ExternalID, &m.Title, &m.URL, &m.Category,
		&m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}
