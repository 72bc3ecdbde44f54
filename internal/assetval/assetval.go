// Package assetval computes balance-sheet based per-share values: book,
// tangible book, and a discounted liquidation value, and picks one according
// to how asset-intensive the business is.
package assetval

import (
	"math"

	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
	"github.com/atmx/valuation-engine/internal/statement"
)

// Liquidation recovery factors. Policy constants, not estimates.
const (
	ReceivablesRecovery = 0.85
	InventoryRecovery   = 0.60
	PPERecovery         = 0.50
	CashRecovery        = 1.00

	// HeavyAssetTurnover is the assets/revenue ratio above which a business
	// counts as asset-heavy.
	HeavyAssetTurnover = 2.0
)

// Intensity classifies asset intensity.
type Intensity string

const (
	AssetHeavy Intensity = "asset_heavy"
	AssetLight Intensity = "asset_light"
	Unknown    Intensity = "unknown"
)

// Method labels which per-share figure was selected.
type Method string

const (
	MethodBookValue   Method = "book_value"
	MethodTangible    Method = "tangible_book"
	MethodLiquidation Method = "liquidation"
)

// Result is the selected value plus all three candidates.
type Result struct {
	PerShare    float64   `json:"per_share"`
	MethodUsed  Method    `json:"method_used"`
	Intensity   Intensity `json:"intensity"`
	BookValue   float64   `json:"book_value"`
	Tangible    float64   `json:"tangible_book_value"`
	Liquidation float64   `json:"liquidation_value"`
}

// Valuation reads the most recent balance sheet of one company.
type Valuation struct {
	data *model.CompanyFinancialData
	fin  statement.Financials
}

// New creates an asset-based valuation for data.
func New(data *model.CompanyFinancialData) *Valuation {
	return &Valuation{data: data, fin: statement.FromCompany(data)}
}

func (v *Valuation) perShare(amount float64) float64 {
	return numeric.SafeDiv(amount, v.fin.Shares(v.data))
}

// BookValuePerShare is stockholders' equity over shares.
func (v *Valuation) BookValuePerShare() float64 {
	return v.perShare(v.fin.Balance.Latest(statement.Equity...))
}

// TangibleBookValuePerShare is (assets − intangibles − liabilities) over shares.
func (v *Valuation) TangibleBookValuePerShare() float64 {
	b := v.fin.Balance
	tangible := b.Latest(statement.TotalAssets...) - v.fin.IntangibleAssets() - b.Latest(statement.TotalLiabilities...)
	return v.perShare(tangible)
}

// LiquidationValuePerShare haircuts current and fixed assets by the recovery
// factors and subtracts all liabilities.
func (v *Valuation) LiquidationValuePerShare() float64 {
	b := v.fin.Balance
	recoverable := ReceivablesRecovery*b.Latest(statement.Receivables...) +
		InventoryRecovery*b.Latest(statement.Inventory...) +
		PPERecovery*b.Latest(statement.NetPPE...) +
		CashRecovery*b.Latest(statement.Cash...)
	return v.perShare(recoverable - b.Latest(statement.TotalLiabilities...))
}

// DetermineIntensity compares total assets with latest-period revenue.
func (v *Valuation) DetermineIntensity() Intensity {
	revenue := v.fin.Income.Latest(statement.Revenue...)
	if revenue <= 0 {
		return Unknown
	}
	if v.fin.Balance.Latest(statement.TotalAssets...)/revenue > HeavyAssetTurnover {
		return AssetHeavy
	}
	return AssetLight
}

// Calculate selects the per-share value: asset-heavy businesses take the
// larger of tangible book and liquidation value, asset-light ones book
// value, and unknown ones tangible book when positive else book value.
func (v *Valuation) Calculate() Result {
	res := Result{
		Intensity:   v.DetermineIntensity(),
		BookValue:   v.BookValuePerShare(),
		Tangible:    v.TangibleBookValuePerShare(),
		Liquidation: v.LiquidationValuePerShare(),
	}
	return selectMethod(res)
}

func selectMethod(res Result) Result {
	switch res.Intensity {
	case AssetHeavy:
		res.PerShare = math.Max(res.Tangible, res.Liquidation)
		res.MethodUsed = MethodTangible
		if res.Liquidation > res.Tangible {
			res.MethodUsed = MethodLiquidation
		}
	case AssetLight:
		res.PerShare = res.BookValue
		res.MethodUsed = MethodBookValue
	default:
		if res.Tangible > 0 {
			res.PerShare = res.Tangible
			res.MethodUsed = MethodTangible
		} else {
			res.PerShare = res.BookValue
			res.MethodUsed = MethodBookValue
		}
	}
	res.PerShare = numeric.NonNegative(res.PerShare)
	return res
}
