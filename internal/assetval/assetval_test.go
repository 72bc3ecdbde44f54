package assetval

import (
	"math"
	"testing"

	"github.com/atmx/valuation-engine/internal/model"
)

func f(v float64) *float64 { return &v }

const period = "2024-12-31"

// heavyCompany has assets/revenue = 3.0, tangible book 8/share and
// liquidation 12/share on 10 shares.
func heavyCompany() *model.CompanyFinancialData {
	return &model.CompanyFinancialData{
		Ticker:            "HEVY",
		SharesOutstanding: f(10),
		IncomeStatement:   model.Statement{period: {"Total Revenue": 100}},
		BalanceSheet: model.Statement{period: {
			"Total Assets":                            300,
			"Goodwill":                                20,
			"Total Liabilities Net Minority Interest": 200,
			"Stockholders Equity":                     100,
			"Accounts Receivable":                     100,
			"Inventory":                               50,
			"Net PPE":                                 100,
			"Cash And Cash Equivalents":               155,
		}},
	}
}

func TestPerShareFigures(t *testing.T) {
	v := New(heavyCompany())
	if got := v.BookValuePerShare(); got != 10 {
		t.Errorf("expected book 10, got %v", got)
	}
	if got := v.TangibleBookValuePerShare(); got != 8 {
		t.Errorf("expected tangible 8, got %v", got)
	}
	// 0.85*100 + 0.60*50 + 0.50*100 + 155 - 200 = 120
	if got := v.LiquidationValuePerShare(); math.Abs(got-12) > 1e-9 {
		t.Errorf("expected liquidation 12, got %v", got)
	}
}

func TestDetermineIntensity(t *testing.T) {
	tests := []struct {
		name    string
		revenue float64
		assets  float64
		want    Intensity
	}{
		{"heavy", 100, 300, AssetHeavy},
		{"light", 100, 150, AssetLight},
		{"boundary is light", 100, 200, AssetLight},
		{"no revenue", 0, 300, Unknown},
		{"negative revenue", -10, 300, Unknown},
	}
	for _, tt := range tests {
		c := &model.CompanyFinancialData{
			IncomeStatement: model.Statement{period: {"Revenue": tt.revenue}},
			BalanceSheet:    model.Statement{period: {"Total Assets": tt.assets}},
		}
		if got := New(c).DetermineIntensity(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestCalculate_AssetHeavyPicksLiquidation(t *testing.T) {
	res := selectMethod(Result{Intensity: AssetHeavy, Tangible: 8, Liquidation: 12, BookValue: 10})
	if res.PerShare != 12 {
		t.Errorf("expected 12, got %v", res.PerShare)
	}
	if res.MethodUsed != MethodLiquidation {
		t.Errorf("expected method liquidation, got %s", res.MethodUsed)
	}
}

func TestCalculate_AssetHeavyPicksTangible(t *testing.T) {
	res := selectMethod(Result{Intensity: AssetHeavy, Tangible: 15, Liquidation: 12})
	if res.PerShare != 15 || res.MethodUsed != MethodTangible {
		t.Errorf("expected tangible 15, got %v via %s", res.PerShare, res.MethodUsed)
	}
}

func TestCalculate_FromStatements(t *testing.T) {
	res := New(heavyCompany()).Calculate()
	if res.Intensity != AssetHeavy {
		t.Fatalf("expected asset_heavy, got %s", res.Intensity)
	}
	if math.Abs(res.PerShare-12) > 1e-9 || res.MethodUsed != MethodLiquidation {
		t.Errorf("expected 12 via liquidation, got %v via %s", res.PerShare, res.MethodUsed)
	}
}

func TestCalculate_AssetLightUsesBook(t *testing.T) {
	res := selectMethod(Result{Intensity: AssetLight, BookValue: 9, Tangible: 4, Liquidation: 20})
	if res.PerShare != 9 || res.MethodUsed != MethodBookValue {
		t.Errorf("expected book 9, got %v via %s", res.PerShare, res.MethodUsed)
	}
}

func TestCalculate_UnknownPrefersPositiveTangible(t *testing.T) {
	res := selectMethod(Result{Intensity: Unknown, BookValue: 9, Tangible: 4})
	if res.PerShare != 4 || res.MethodUsed != MethodTangible {
		t.Errorf("expected tangible 4, got %v via %s", res.PerShare, res.MethodUsed)
	}
	res = selectMethod(Result{Intensity: Unknown, BookValue: 9, Tangible: -2})
	if res.PerShare != 9 || res.MethodUsed != MethodBookValue {
		t.Errorf("expected book 9, got %v via %s", res.PerShare, res.MethodUsed)
	}
}

func TestCalculate_FloorsAtZero(t *testing.T) {
	res := selectMethod(Result{Intensity: AssetLight, BookValue: -3})
	if res.PerShare != 0 {
		t.Errorf("expected negative book to floor at 0, got %v", res.PerShare)
	}
}

func TestCalculate_NoShares(t *testing.T) {
	c := heavyCompany()
	c.SharesOutstanding = nil
	res := New(c).Calculate()
	if res.PerShare != 0 || math.IsNaN(res.BookValue) {
		t.Errorf("expected 0 without shares, got %v", res.PerShare)
	}
}
