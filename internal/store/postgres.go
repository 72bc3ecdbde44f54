package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atmx/valuation-engine/internal/model"
)

// Schema creates the valuations table. Monetary and ratio columns are
// NUMERIC for exact decimal precision.
const Schema = `
CREATE TABLE IF NOT EXISTS valuations (
	id                       TEXT PRIMARY KEY,
	ticker                   TEXT NOT NULL,
	currency                 TEXT NOT NULL DEFAULT '',
	category                 TEXT NOT NULL,
	business_type            TEXT NOT NULL DEFAULT '',
	current_price            NUMERIC NOT NULL,
	fair_value               NUMERIC NOT NULL,
	confidence_lower         NUMERIC NOT NULL,
	confidence_upper         NUMERIC NOT NULL,
	dcf_value                NUMERIC NOT NULL,
	epv_value                NUMERIC NOT NULL,
	asset_value              NUMERIC NOT NULL,
	margin_of_safety         NUMERIC NOT NULL,
	upside_potential         NUMERIC NOT NULL,
	price_to_intrinsic_value NUMERIC NOT NULL,
	recommendation           TEXT NOT NULL,
	reasoning                TEXT NOT NULL,
	created_at               TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS valuations_ticker_created_idx ON valuations (ticker, created_at DESC);
`

const selectColumns = `id, ticker, currency, category, business_type,
	current_price::TEXT, fair_value::TEXT, confidence_lower::TEXT, confidence_upper::TEXT,
	dcf_value::TEXT, epv_value::TEXT, asset_value::TEXT,
	margin_of_safety::TEXT, upside_potential::TEXT, price_to_intrinsic_value::TEXT,
	recommendation, reasoning, created_at`

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate valuations: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveValuation(ctx context.Context, r *model.ValuationRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO valuations (id, ticker, currency, category, business_type,
		        current_price, fair_value, confidence_lower, confidence_upper,
		        dcf_value, epv_value, asset_value,
		        margin_of_safety, upside_potential, price_to_intrinsic_value,
		        recommendation, reasoning, created_at)
		 VALUES ($1, $2, $3, $4, $5,
		         $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC,
		         $10::NUMERIC, $11::NUMERIC, $12::NUMERIC,
		         $13::NUMERIC, $14::NUMERIC, $15::NUMERIC,
		         $16, $17, $18)`,
		r.ID, r.Ticker, r.Currency, r.Category, r.BusinessType,
		r.CurrentPrice.String(), r.FairValue.String(), r.ConfidenceLower.String(), r.ConfidenceUpper.String(),
		r.DCFValue.String(), r.EPVValue.String(), r.AssetValue.String(),
		r.MarginOfSafety.String(), r.UpsidePotential.String(), r.PriceToIntrinsicValue.String(),
		string(r.Recommendation), r.Reasoning, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save valuation %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM valuations WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get valuation %s: %w", id, notFound(err))
	}
	return rec, nil
}

func (s *PostgresStore) LatestByTicker(ctx context.Context, ticker string) (*model.ValuationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM valuations
		 WHERE ticker = $1 ORDER BY created_at DESC LIMIT 1`, ticker)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("latest valuation for %s: %w", ticker, notFound(err))
	}
	return rec, nil
}

func (s *PostgresStore) ListByTicker(ctx context.Context, ticker string, limit int) ([]model.ValuationRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM valuations WHERE ticker = $1 ORDER BY created_at DESC`
	args := []any{ticker}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *PostgresStore) ListLatest(ctx context.Context) ([]model.ValuationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (ticker) `+selectColumns+`
		 FROM valuations ORDER BY ticker, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row in selectColumns order.
func scanRecord(row rowScanner) (*model.ValuationRecord, error) {
	var r model.ValuationRecord
	var rec string
	var price, fair, lower, upper, dcfV, epvV, assetV, mos, upside, ratio string

	if err := row.Scan(&r.ID, &r.Ticker, &r.Currency, &r.Category, &r.BusinessType,
		&price, &fair, &lower, &upper,
		&dcfV, &epvV, &assetV,
		&mos, &upside, &ratio,
		&rec, &r.Reasoning, &r.CreatedAt); err != nil {
		return nil, err
	}

	r.CurrentPrice, _ = decimal.NewFromString(price)
	r.FairValue, _ = decimal.NewFromString(fair)
	r.ConfidenceLower, _ = decimal.NewFromString(lower)
	r.ConfidenceUpper, _ = decimal.NewFromString(upper)
	r.DCFValue, _ = decimal.NewFromString(dcfV)
	r.EPVValue, _ = decimal.NewFromString(epvV)
	r.AssetValue, _ = decimal.NewFromString(assetV)
	r.MarginOfSafety, _ = decimal.NewFromString(mos)
	r.UpsidePotential, _ = decimal.NewFromString(upside)
	r.PriceToIntrinsicValue, _ = decimal.NewFromString(ratio)
	r.Recommendation = model.Recommendation(rec)
	return &r, nil
}

type pgxRows interface {
	rowScanner
	Next() bool
	Err() error
}

func scanRecords(rows pgxRows) ([]model.ValuationRecord, error) {
	var recs []model.ValuationRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}
