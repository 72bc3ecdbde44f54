// Package statement provides read-only access to a company's historical
// income statement, balance sheet, and cash-flow statement.
//
// Data providers disagree on line-item names ("Total Revenue" vs "Revenue"),
// so every lookup takes a list of aliases and returns the first one present.
// Missing periods and missing keys read as zero; nothing here panics.
package statement

import (
	"sort"

	"github.com/atmx/valuation-engine/internal/model"
)

// Line-item aliases, most common spelling first.
var (
	Revenue          = []string{"Total Revenue", "Revenue", "Operating Revenue", "TotalRevenue", "Revenues"}
	NetIncome        = []string{"Net Income", "Net Income Common Stockholders", "NetIncome", "Net Income From Continuing Operation Net Minority Interest"}
	PretaxIncome     = []string{"Pretax Income", "Income Before Tax", "PretaxIncome"}
	TaxProvision     = []string{"Tax Provision", "Income Tax Expense", "TaxProvision"}
	InterestExpense  = []string{"Interest Expense", "Interest Expense Non Operating", "InterestExpense"}
	OperatingCash    = []string{"Operating Cash Flow", "Total Cash From Operating Activities", "Cash Flow From Continuing Operating Activities", "OperatingCashFlow"}
	CapitalSpending  = []string{"Capital Expenditure", "Capital Expenditures", "CapitalExpenditure", "Purchase Of PPE"}
	TotalAssets      = []string{"Total Assets", "TotalAssets"}
	TotalLiabilities = []string{"Total Liabilities Net Minority Interest", "Total Liab", "Total Liabilities", "TotalLiabilities"}
	Equity           = []string{"Stockholders Equity", "Total Stockholder Equity", "Common Stock Equity", "Total Equity Gross Minority Interest", "StockholdersEquity"}
	GoodwillAndIntan = []string{"Goodwill And Other Intangible Assets", "GoodwillAndOtherIntangibleAssets"}
	Goodwill         = []string{"Goodwill"}
	Intangibles      = []string{"Other Intangible Assets", "Intangible Assets", "IntangibleAssets"}
	Receivables      = []string{"Accounts Receivable", "Receivables", "Net Receivables", "AccountsReceivable"}
	Inventory        = []string{"Inventory", "Inventories"}
	NetPPE           = []string{"Net PPE", "Property Plant Equipment", "Net Property Plant And Equipment", "NetPPE"}
	Cash             = []string{"Cash And Cash Equivalents", "Cash", "Cash Cash Equivalents And Short Term Investments", "CashAndCashEquivalents"}
	TotalDebt        = []string{"Total Debt", "TotalDebt", "Long Term Debt"}
	ShareCount       = []string{"Ordinary Shares Number", "Share Issued", "Common Stock Shares Outstanding"}
)

// View wraps one statement with its periods sorted newest first.
type View struct {
	data    model.Statement
	periods []string
}

// NewView builds a View. A nil statement yields an empty view.
func NewView(s model.Statement) *View {
	periods := make([]string, 0, len(s))
	for p := range s {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return &View{data: s, periods: periods}
}

// Periods returns the period identifiers, newest first.
func (v *View) Periods() []string {
	return v.periods
}

// Len is the number of periods.
func (v *View) Len() int {
	return len(v.periods)
}

// Latest returns the first matching alias in the most recent period.
func (v *View) Latest(aliases ...string) float64 {
	return v.At(0, aliases...)
}

// At returns the first matching alias in the i-th most recent period.
func (v *View) At(i int, aliases ...string) float64 {
	val, _ := v.lookup(i, aliases)
	return val
}

// Has reports whether any alias is present in the most recent period.
func (v *View) Has(aliases ...string) bool {
	_, ok := v.lookup(0, aliases)
	return ok
}

// Series returns one value per period, newest first, skipping periods where
// no alias is present.
func (v *View) Series(aliases ...string) []float64 {
	out := make([]float64, 0, len(v.periods))
	for i := range v.periods {
		if val, ok := v.lookup(i, aliases); ok {
			out = append(out, val)
		}
	}
	return out
}

func (v *View) lookup(i int, aliases []string) (float64, bool) {
	if i < 0 || i >= len(v.periods) {
		return 0, false
	}
	items := v.data[v.periods[i]]
	for _, name := range aliases {
		if val, ok := items[name]; ok {
			return val, true
		}
	}
	return 0, false
}

// Financials groups the three statements of one company.
type Financials struct {
	Income   *View
	Balance  *View
	Cashflow *View
}

// FromCompany builds views over all three statements of c.
func FromCompany(c *model.CompanyFinancialData) Financials {
	return Financials{
		Income:   NewView(c.IncomeStatement),
		Balance:  NewView(c.BalanceSheet),
		Cashflow: NewView(c.Cashflow),
	}
}

// Shares resolves the share count: the quoted figure first, then the
// balance-sheet share count.
func (f Financials) Shares(c *model.CompanyFinancialData) float64 {
	if s := c.Shares(); s > 0 {
		return s
	}
	return f.Balance.Latest(ShareCount...)
}

// IntangibleAssets returns goodwill plus other intangibles from the latest
// balance sheet, preferring the combined line when reported.
func (f Financials) IntangibleAssets() float64 {
	if f.Balance.Has(GoodwillAndIntan...) {
		return f.Balance.Latest(GoodwillAndIntan...)
	}
	return f.Balance.Latest(Goodwill...) + f.Balance.Latest(Intangibles...)
}
