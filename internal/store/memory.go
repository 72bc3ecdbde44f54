package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/valuation-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*model.ValuationRecord
	byTicker map[string][]string // ticker → ids in insertion order
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*model.ValuationRecord),
		byTicker: make(map[string][]string),
	}
}

func (s *MemoryStore) SaveValuation(_ context.Context, rec *model.ValuationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; ok {
		return fmt.Errorf("valuation %s already exists", rec.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *rec
	s.byID[rec.ID] = &copy
	s.byTicker[rec.Ticker] = append(s.byTicker[rec.Ticker], rec.ID)
	return nil
}

func (s *MemoryStore) GetValuation(_ context.Context, id string) (*model.ValuationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("valuation %s: %w", id, ErrNotFound)
	}
	copy := *rec
	return &copy, nil
}

func (s *MemoryStore) LatestByTicker(ctx context.Context, ticker string) (*model.ValuationRecord, error) {
	recs, err := s.ListByTicker(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("valuation for %s: %w", ticker, ErrNotFound)
	}
	return &recs[0], nil
}

func (s *MemoryStore) ListByTicker(_ context.Context, ticker string, limit int) ([]model.ValuationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTicker[ticker]
	result := make([]model.ValuationRecord, 0, len(ids))
	for _, id := range ids {
		result = append(result, *s.byID[id])
	}
	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ListLatest(_ context.Context) ([]model.ValuationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.ValuationRecord, 0, len(s.byTicker))
	for _, ids := range s.byTicker {
		var latest *model.ValuationRecord
		for _, id := range ids {
			rec := s.byID[id]
			if latest == nil || !rec.CreatedAt.Before(latest.CreatedAt) {
				latest = rec
			}
		}
		if latest != nil {
			result = append(result, *latest)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ticker < result[j].Ticker })
	return result, nil
}

// sortNewestFirst orders by CreatedAt descending. Ties keep insertion order
// reversed so the last write wins.
func sortNewestFirst(recs []model.ValuationRecord) {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
}
