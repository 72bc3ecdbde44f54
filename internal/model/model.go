// Package model defines the domain types shared across the valuation engine.
// Engine inputs and intermediate results are float64; persisted records carry
// money as shopspring/decimal.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement maps a period identifier (a sortable date string such as
// "2024-12-31") to the line items reported in that period.
type Statement map[string]map[string]float64

// CompanyFinancialData is an immutable snapshot of one company supplied by
// the data-fetching layer. Optional numerics are nil when unknown.
type CompanyFinancialData struct {
	Ticker            string    `json:"ticker" validate:"required"`
	Currency          string    `json:"currency"`           // trading currency
	FinancialCurrency string    `json:"financial_currency"` // statement currency, may be empty
	Sector            string    `json:"sector"`
	Industry          string    `json:"industry"`
	IncomeStatement   Statement `json:"income_statement"`
	BalanceSheet      Statement `json:"balance_sheet"`
	Cashflow          Statement `json:"cashflow"`
	SharesOutstanding *float64  `json:"shares_outstanding,omitempty"`
	MarketCap         *float64  `json:"market_cap,omitempty"`
	CurrentPrice      *float64  `json:"current_price,omitempty"`
	Beta              *float64  `json:"beta,omitempty"`
}

// Price returns the current price, or 0 when unknown.
func (c *CompanyFinancialData) Price() float64 {
	return deref(c.CurrentPrice)
}

// Shares returns the shares outstanding, or 0 when unknown.
func (c *CompanyFinancialData) Shares() float64 {
	return deref(c.SharesOutstanding)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ValuationBreakdown holds the per-share value of each method and the blend,
// all in the unit of the current price.
type ValuationBreakdown struct {
	DCF             float64 `json:"dcf"`
	EarningsPower   float64 `json:"earningsPower"`
	AssetBased      float64 `json:"assetBased"`
	WeightedAverage float64 `json:"weightedAverage"`
}

// Recommendation is the categorical output of the margin-of-safety step.
// The literal values are part of the response schema.
type Recommendation string

const (
	StrongBuy Recommendation = "Strong Buy"
	Buy       Recommendation = "Buy"
	Hold      Recommendation = "Hold"
	Avoid     Recommendation = "Avoid"
)

// Valid reports whether r is one of the four recommendation literals.
func (r Recommendation) Valid() bool {
	switch r {
	case StrongBuy, Buy, Hold, Avoid:
		return true
	}
	return false
}

// ValuationRecord is a persisted snapshot of one valuation run.
type ValuationRecord struct {
	ID                    string          `json:"id" db:"id"`
	Ticker                string          `json:"ticker" db:"ticker"`
	Currency              string          `json:"currency" db:"currency"`
	Category              string          `json:"category" db:"category"`
	BusinessType          string          `json:"business_type" db:"business_type"`
	CurrentPrice          decimal.Decimal `json:"current_price" db:"current_price"`
	FairValue             decimal.Decimal `json:"fair_value" db:"fair_value"`
	ConfidenceLower       decimal.Decimal `json:"confidence_lower" db:"confidence_lower"`
	ConfidenceUpper       decimal.Decimal `json:"confidence_upper" db:"confidence_upper"`
	DCFValue              decimal.Decimal `json:"dcf_value" db:"dcf_value"`
	EPVValue              decimal.Decimal `json:"epv_value" db:"epv_value"`
	AssetValue            decimal.Decimal `json:"asset_value" db:"asset_value"`
	MarginOfSafety        decimal.Decimal `json:"margin_of_safety" db:"margin_of_safety"`
	UpsidePotential       decimal.Decimal `json:"upside_potential" db:"upside_potential"`
	PriceToIntrinsicValue decimal.Decimal `json:"price_to_intrinsic_value" db:"price_to_intrinsic_value"`
	Recommendation        Recommendation  `json:"recommendation" db:"recommendation"`
	Reasoning             string          `json:"reasoning" db:"reasoning"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
}
