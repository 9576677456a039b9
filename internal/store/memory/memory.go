// Package memory provides in-memory implementations of the domain store
// interfaces, used for tests and for running the pipeline without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aywang31/marketpulse/internal/domain"
)

// MarketStore is a mutex-guarded in-memory domain.MarketStore.
type MarketStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.Market
	byKey   map[string]string // source+external_id -> id
	ordered []string          // ids in insertion order
}

// NewMarketStore creates an empty MarketStore.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		byID:  make(map[string]domain.Market),
		byKey: make(map[string]string),
	}
}

func marketKey(src domain.Source, externalID string) string {
	return string(src) + "\x00" + externalID
}

// Upsert inserts or refreshes the market keyed by (source, external_id).
func (s *MarketStore) Upsert(_ context.Context, m domain.Market) (domain.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := marketKey(m.Source, m.ExternalID)

	if id, ok := s.byKey[key]; ok {
		existing := s.byID[id]
		existing.Title = m.Title
		existing.URL = m.URL
		existing.Category = m.Category
		existing.Status = m.Status
		existing.UpdatedAt = now
		s.byID[id] = existing
		return existing, nil
	}

	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.byID[m.ID] = m
	s.byKey[key] = m.ID
	s.ordered = append(s.ordered, m.ID)
	return m, nil
}

// GetByID fetches a market by internal ID.
func (s *MarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// List returns markets in insertion order, restricted to status "active"
// when activeOnly.
func (s *MarketStore) List(_ context.Context, activeOnly bool) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]domain.Market, 0, len(s.ordered))
	for _, id := range s.ordered {
		m := s.byID[id]
		if activeOnly && m.Status != "active" {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// Count returns the number of stored markets.
func (s *MarketStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

// SnapshotStore is a mutex-guarded in-memory domain.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string][]domain.MarketSnapshot // market_id -> snapshots
}

// NewSnapshotStore creates an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{rows: make(map[string][]domain.MarketSnapshot)}
}

// Append stores one snapshot row.
func (s *SnapshotStore) Append(_ context.Context, snap domain.MarketSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	snap.ID = s.nextID
	s.rows[snap.MarketID] = append(s.rows[snap.MarketID], snap)
	return nil
}

// ListSince returns the market's snapshots with ts >= since, ascending by ts.
func (s *SnapshotStore) ListSince(_ context.Context, marketID string, since time.Time) ([]domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MarketSnapshot
	for _, snap := range s.rows[marketID] {
		if !snap.TS.Before(since) {
			out = append(out, snap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	return out, nil
}

// CountFor reports the number of snapshots stored for a market.
func (s *SnapshotStore) CountFor(marketID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[marketID])
}

// SignalStore is a mutex-guarded in-memory domain.SignalStore.
type SignalStore struct {
	mu      sync.RWMutex
	signals []domain.MarketSignal
}

// NewSignalStore creates an empty SignalStore.
func NewSignalStore() *SignalStore {
	return &SignalStore{}
}

// Insert stores one signal.
func (s *SignalStore) Insert(_ context.Context, sig domain.MarketSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	s.signals = append(s.signals, sig)
	return nil
}

// ExistsSince reports whether the market has a signal with ts >= since.
func (s *SignalStore) ExistsSince(_ context.Context, marketID string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sig := range s.signals {
		if sig.MarketID == marketID && !sig.TS.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// ListRecent returns the newest signals, descending by ts.
func (s *SignalStore) ListRecent(_ context.Context, limit int) ([]domain.MarketSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MarketSignal, len(s.signals))
	copy(out, s.signals)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.After(out[j].TS) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
