// Package dcf implements a discounted cash flow valuation from reported
// statements.
//
// The discount rate is a WACC built from CAPM cost of equity and an observed
// or assumed cost of debt. Free cash flow is projected over a short horizon
// with growth fading toward the terminal rate, then capitalized with a
// Gordon growth terminal value:
//
//	EV  = Σ FCF_t / (1+WACC)^t + FCF_H·(1+g) / (WACC−g) / (1+WACC)^H
//	PPS = (EV − net debt) / shares
//
// Missing inputs degrade to conservative defaults; Calculate never fails and
// returns 0 per share when the data cannot support a value.
package dcf

import (
	"log/slog"
	"math"

	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
	"github.com/atmx/valuation-engine/internal/statement"
)

// Params are the tunable assumptions of the model.
type Params struct {
	EquityRiskPremium float64 `yaml:"equity_risk_premium" default:"0.055"`
	DebtSpread        float64 `yaml:"debt_spread" default:"0.02"`
	DefaultTaxRate    float64 `yaml:"default_tax_rate" default:"0.21"`
	HorizonYears      int     `yaml:"horizon_years" default:"5"`
	TerminalGrowth    float64 `yaml:"terminal_growth" default:"0.025"`
	MaxGrowth         float64 `yaml:"max_growth" default:"0.15"`
	MinWACC           float64 `yaml:"min_wacc" default:"0.06"`
	MaxWACC           float64 `yaml:"max_wacc" default:"0.20"`
	// NetIncomeFCFRatio approximates FCF from net income when the cash-flow
	// statement is unusable.
	NetIncomeFCFRatio float64 `yaml:"net_income_fcf_ratio" default:"0.70"`
}

// DefaultParams returns the standard assumptions.
func DefaultParams() Params {
	return Params{
		EquityRiskPremium: 0.055,
		DebtSpread:        0.02,
		DefaultTaxRate:    0.21,
		HorizonYears:      5,
		TerminalGrowth:    0.025,
		MaxGrowth:         0.15,
		MinWACC:           0.06,
		MaxWACC:           0.20,
		NetIncomeFCFRatio: 0.70,
	}
}

// Result holds the per-share value and the intermediate figures behind it.
type Result struct {
	PerShare        float64 `json:"per_share"`
	WACC            float64 `json:"wacc"`
	CostOfEquity    float64 `json:"cost_of_equity"`
	CostOfDebt      float64 `json:"cost_of_debt"`
	TaxRate         float64 `json:"tax_rate"`
	BaseFCF         float64 `json:"base_fcf"`
	FCFFromEarnings bool    `json:"fcf_from_earnings"`
	Growth          float64 `json:"growth"`
	PVCashFlows     float64 `json:"pv_cash_flows"`
	PVTerminal      float64 `json:"pv_terminal"`
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
}

// Model values one company. It is stateless after construction and safe for
// concurrent use.
type Model struct {
	data   *model.CompanyFinancialData
	fin    statement.Financials
	rf     float64
	params Params
}

// New creates a DCF model for data at the given risk-free rate.
func New(data *model.CompanyFinancialData, riskFreeRate float64, params Params) *Model {
	if params.HorizonYears <= 0 {
		params.HorizonYears = DefaultParams().HorizonYears
	}
	return &Model{
		data:   data,
		fin:    statement.FromCompany(data),
		rf:     riskFreeRate,
		params: params,
	}
}

// TaxRate is the effective rate from the latest income statement, or the
// default when the reported rate is missing or implausible.
func (m *Model) TaxRate() float64 {
	pretax := m.fin.Income.Latest(statement.PretaxIncome...)
	tax := m.fin.Income.Latest(statement.TaxProvision...)
	rate := numeric.SafeDiv(tax, pretax)
	if pretax <= 0 || rate <= 0 || rate >= 0.5 {
		return m.params.DefaultTaxRate
	}
	return rate
}

// CostOfEquity applies CAPM: rf + β·ERP. Unknown beta is taken as 1.0.
func (m *Model) CostOfEquity() float64 {
	beta := 1.0
	// Data feeds report 0 when beta is unavailable, so 0 counts as unknown.
	if m.data.Beta != nil && numeric.Finite(*m.data.Beta) != 0 {
		beta = *m.data.Beta
	}
	return m.rf + beta*m.params.EquityRiskPremium
}

// CostOfDebt is interest expense over total debt when that ratio is
// plausible, otherwise rf plus the debt spread.
func (m *Model) CostOfDebt() float64 {
	interest := math.Abs(m.fin.Income.Latest(statement.InterestExpense...))
	debt := m.fin.Balance.Latest(statement.TotalDebt...)
	kd := numeric.SafeDiv(interest, debt)
	if debt <= 0 || kd <= 0 || kd > 0.20 {
		return m.rf + m.params.DebtSpread
	}
	return kd
}

// WACC blends cost of equity and after-tax cost of debt by market-value
// weights, clamped to [MinWACC, MaxWACC].
func (m *Model) WACC() float64 {
	ke := m.CostOfEquity()
	equity := m.marketEquity()
	debt := math.Max(m.fin.Balance.Latest(statement.TotalDebt...), 0)

	wacc := ke
	if equity > 0 {
		total := equity + debt
		wacc = equity/total*ke + debt/total*m.CostOfDebt()*(1-m.TaxRate())
	}
	return numeric.Clamp(wacc, m.params.MinWACC, m.params.MaxWACC)
}

func (m *Model) marketEquity() float64 {
	if m.data.MarketCap != nil && *m.data.MarketCap > 0 {
		return *m.data.MarketCap
	}
	return m.data.Price() * m.fin.Shares(m.data)
}

// BaseFreeCashFlow returns operating cash flow less capital expenditure from
// the latest cash-flow statement. When operating cash flow is missing or
// zero it falls back to NetIncomeFCFRatio × net income and reports true.
func (m *Model) BaseFreeCashFlow() (float64, bool) {
	ocf := m.fin.Cashflow.Latest(statement.OperatingCash...)
	if ocf == 0 {
		ni := m.fin.Income.Latest(statement.NetIncome...)
		return m.params.NetIncomeFCFRatio * ni, true
	}
	capex := math.Abs(m.fin.Cashflow.Latest(statement.CapitalSpending...))
	return ocf - capex, false
}

// GrowthRate is the revenue CAGR across the reported periods, clamped to
// [0, MaxGrowth]. Fewer than two usable periods yield 0.
func (m *Model) GrowthRate() float64 {
	revenue := m.fin.Income.Series(statement.Revenue...)
	if len(revenue) < 2 {
		return 0
	}
	newest, oldest := revenue[0], revenue[len(revenue)-1]
	if newest <= 0 || oldest <= 0 {
		return 0
	}
	cagr := math.Pow(newest/oldest, 1/float64(len(revenue)-1)) - 1
	return numeric.Clamp(cagr, 0, m.params.MaxGrowth)
}

// Calculate runs the full model.
func (m *Model) Calculate() Result {
	res := Result{
		TaxRate:      m.TaxRate(),
		CostOfEquity: m.CostOfEquity(),
		CostOfDebt:   m.CostOfDebt(),
		WACC:         m.WACC(),
		Growth:       m.GrowthRate(),
	}
	res.BaseFCF, res.FCFFromEarnings = m.BaseFreeCashFlow()

	shares := m.fin.Shares(m.data)
	if shares <= 0 || res.WACC <= 0 {
		slog.Debug("dcf: missing denominator", "ticker", m.data.Ticker, "shares", shares, "wacc", res.WACC)
		return res.finite()
	}
	if res.FCFFromEarnings {
		slog.Debug("dcf: cash flow unavailable, using net income proxy", "ticker", m.data.Ticker)
	}

	h := m.params.HorizonYears
	tg := m.params.TerminalGrowth
	fcf := res.BaseFCF
	discount := 1.0
	for t := 1; t <= h; t++ {
		g := res.Growth - (res.Growth-tg)*float64(t)/float64(h)
		fcf *= 1 + g
		discount /= 1 + res.WACC
		res.PVCashFlows += fcf * discount
	}

	if res.WACC > tg {
		terminal := fcf * (1 + tg) / (res.WACC - tg)
		res.PVTerminal = terminal * discount
	}

	ev := res.PVCashFlows + res.PVTerminal
	if math.IsNaN(ev) || math.IsInf(ev, 0) {
		slog.Debug("dcf: projection overflowed", "ticker", m.data.Ticker, "base_fcf", res.BaseFCF)
		return res.finite()
	}

	cash := m.fin.Balance.Latest(statement.Cash...)
	debt := m.fin.Balance.Latest(statement.TotalDebt...)
	res.EnterpriseValue = ev
	res.EquityValue = numeric.Finite(res.EnterpriseValue - (debt - cash))
	res.PerShare = numeric.NonNegative(numeric.SafeDiv(res.EquityValue, shares))
	return res.finite()
}

// finite zeroes every non-finite figure so extreme statements never leak
// ±Inf or NaN into reports.
func (r Result) finite() Result {
	for _, v := range []*float64{
		&r.PerShare, &r.WACC, &r.CostOfEquity, &r.CostOfDebt, &r.TaxRate,
		&r.BaseFCF, &r.Growth, &r.PVCashFlows, &r.PVTerminal,
		&r.EnterpriseValue, &r.EquityValue,
	} {
		*v = numeric.Finite(*v)
	}
	return r
}
