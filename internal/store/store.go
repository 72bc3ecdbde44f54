// Package store defines the persistence interface for valuation records.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/atmx/valuation-engine/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. Records are immutable once saved.
type Store interface {
	// SaveValuation persists a new valuation record.
	SaveValuation(ctx context.Context, rec *model.ValuationRecord) error

	// GetValuation retrieves a record by its ID.
	GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error)

	// LatestByTicker returns the most recent record for a ticker.
	LatestByTicker(ctx context.Context, ticker string) (*model.ValuationRecord, error)

	// ListByTicker returns up to limit records for a ticker, newest first.
	// A limit ≤ 0 returns all of them.
	ListByTicker(ctx context.Context, ticker string, limit int) ([]model.ValuationRecord, error)

	// ListLatest returns the most recent record of every ticker.
	ListLatest(ctx context.Context) ([]model.ValuationRecord, error)
}
