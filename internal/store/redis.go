package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/valuation-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Records are immutable, so by-id entries never need invalidation;
// per-ticker "latest" pointers are refreshed on every save.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) SaveValuation(ctx context.Context, rec *model.ValuationRecord) error {
	if err := s.primary.SaveValuation(ctx, rec); err != nil {
		return err
	}
	s.cacheRecord(ctx, rec)
	s.rdb.Set(ctx, latestKey(rec.Ticker), rec.ID, s.ttl)
	return nil
}

// --- Read-through ---

func (s *CachedStore) GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error) {
	data, err := s.rdb.Get(ctx, valuationKey(id)).Bytes()
	if err == nil {
		var rec model.ValuationRecord
		if json.Unmarshal(data, &rec) == nil {
			return &rec, nil
		}
	}

	rec, err := s.primary.GetValuation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheRecord(ctx, rec)
	return rec, nil
}

func (s *CachedStore) LatestByTicker(ctx context.Context, ticker string) (*model.ValuationRecord, error) {
	// Try cache via ticker→id pointer.
	id, err := s.rdb.Get(ctx, latestKey(ticker)).Result()
	if err == nil {
		return s.GetValuation(ctx, id)
	}

	rec, err := s.primary.LatestByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	s.cacheRecord(ctx, rec)
	s.rdb.Set(ctx, latestKey(ticker), rec.ID, s.ttl)
	return rec, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListByTicker(ctx context.Context, ticker string, limit int) ([]model.ValuationRecord, error) {
	return s.primary.ListByTicker(ctx, ticker, limit)
}

func (s *CachedStore) ListLatest(ctx context.Context) ([]model.ValuationRecord, error) {
	return s.primary.ListLatest(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheRecord(ctx context.Context, rec *model.ValuationRecord) {
	if data, err := json.Marshal(rec); err == nil {
		s.rdb.Set(ctx, valuationKey(rec.ID), data, s.ttl)
	}
}

func valuationKey(id string) string { return fmt.Sprintf("valuation:%s", id) }
func latestKey(ticker string) string { return fmt.Sprintf("valuation:latest:%s", ticker) }
