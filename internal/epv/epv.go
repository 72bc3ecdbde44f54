// Package epv implements Earnings Power Value: normalized current earnings
// capitalized at a rate that widens as business quality falls.
//
//	cap rate = rf + BasePremium + (100 − quality)/100 · QualitySpread
//	EPV/share = mean(net income over Window periods) / cap rate / shares
package epv

import (
	"log/slog"

	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
	"github.com/atmx/valuation-engine/internal/statement"
)

// Params are the tunable assumptions of the model.
type Params struct {
	Window        int     `yaml:"window" default:"3"`
	BasePremium   float64 `yaml:"base_premium" default:"0.04"`
	QualitySpread float64 `yaml:"quality_spread" default:"0.06"`
}

// DefaultParams returns the standard assumptions.
func DefaultParams() Params {
	return Params{Window: 3, BasePremium: 0.04, QualitySpread: 0.06}
}

// Result holds the per-share value and its inputs.
type Result struct {
	PerShare           float64 `json:"per_share"`
	NormalizedEarnings float64 `json:"normalized_earnings"`
	CapitalizationRate float64 `json:"capitalization_rate"`
	QualityScore       float64 `json:"quality_score"`
}

// Model values one company.
type Model struct {
	data   *model.CompanyFinancialData
	fin    statement.Financials
	rf     float64
	params Params
}

// New creates an EPV model for data at the given risk-free rate.
func New(data *model.CompanyFinancialData, riskFreeRate float64, params Params) *Model {
	if params.Window <= 0 {
		params.Window = DefaultParams().Window
	}
	return &Model{
		data:   data,
		fin:    statement.FromCompany(data),
		rf:     riskFreeRate,
		params: params,
	}
}

// NormalizedEarnings averages net income over the most recent Window periods.
func (m *Model) NormalizedEarnings() float64 {
	series := m.fin.Income.Series(statement.NetIncome...)
	if len(series) > m.params.Window {
		series = series[:m.params.Window]
	}
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return numeric.Finite(sum / float64(len(series)))
}

// CapitalizationRate returns the cap rate for a quality score, clamped to
// [0, 100] first.
func (m *Model) CapitalizationRate(quality float64) float64 {
	q := numeric.Clamp(quality, 0, 100)
	return m.rf + m.params.BasePremium + (100-q)/100*m.params.QualitySpread
}

// Calculate returns the earnings power value per share.
func (m *Model) Calculate(quality float64) Result {
	res := Result{
		QualityScore:       numeric.Clamp(quality, 0, 100),
		NormalizedEarnings: m.NormalizedEarnings(),
		CapitalizationRate: m.CapitalizationRate(quality),
	}

	shares := m.fin.Shares(m.data)
	if res.NormalizedEarnings <= 0 || res.CapitalizationRate <= 0 || shares <= 0 {
		slog.Debug("epv: no earnings power",
			"ticker", m.data.Ticker,
			"earnings", res.NormalizedEarnings,
			"cap_rate", res.CapitalizationRate,
			"shares", shares,
		)
		return res
	}

	value := res.NormalizedEarnings / res.CapitalizationRate
	res.PerShare = numeric.NonNegative(numeric.SafeDiv(value, shares))
	return res
}
