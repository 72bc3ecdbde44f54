package intrinsic

import (
	"math"
	"testing"

	"github.com/atmx/valuation-engine/internal/classify"
	"github.com/atmx/valuation-engine/internal/model"
)

func f(v float64) *float64 { return &v }

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- Blend ---

func TestBlend_RedistributesAroundInvalidMethod(t *testing.T) {
	est := Blend([3]float64{10, 0, 20}, classify.Weights{DCF: 0.4, EPV: 0.4, Asset: 0.2})

	want := (10*0.4 + 20*0.2) / (0.4 + 0.2)
	if !approx(est.Value, want) {
		t.Errorf("expected renormalized blend %v, got %v", want, est.Value)
	}
	if approx(est.Value, 8.0) {
		t.Error("blend must not use the fixed-weight sum")
	}
	if est.ValidMethods != 2 {
		t.Errorf("expected 2 valid methods, got %d", est.ValidMethods)
	}
}

func TestBlend_AllValidIsPlainWeightedSum(t *testing.T) {
	est := Blend([3]float64{10, 20, 30}, classify.Weights{DCF: 0.5, EPV: 0.3, Asset: 0.2})
	if !approx(est.Value, 5+6+6) {
		t.Errorf("expected 17, got %v", est.Value)
	}
	// Band: ±0.2 × (30 − 10)
	if !approx(est.Lower, 13) || !approx(est.Upper, 21) {
		t.Errorf("expected band [13, 21], got [%v, %v]", est.Lower, est.Upper)
	}
}

func TestBlend_AllInvalidFallsBack(t *testing.T) {
	est := Blend([3]float64{0, 0, 0}, classify.Mature.Weights())
	if est.Value != 0 || est.Lower != 0 || est.Upper != 0 {
		t.Errorf("expected zero estimate, got %+v", est)
	}
	if est.ValidMethods != 0 {
		t.Errorf("expected no valid methods, got %d", est.ValidMethods)
	}
}

func TestBlend_AllNegativeUsesRawSumAndPercentBand(t *testing.T) {
	est := Blend([3]float64{-10, -20, 0}, classify.Weights{DCF: 0.5, EPV: 0.5})
	if !approx(est.Value, -15) {
		t.Errorf("expected raw weighted sum -15, got %v", est.Value)
	}
	if !approx(est.Lower, -12) || !approx(est.Upper, -18) {
		t.Errorf("expected ±20%% band, got [%v, %v]", est.Lower, est.Upper)
	}
}

func TestBlend_NaNTreatedAsInvalid(t *testing.T) {
	est := Blend([3]float64{math.NaN(), 12, math.Inf(1)}, classify.Mature.Weights())
	if !approx(est.Value, 12) {
		t.Errorf("expected only EPV to count, got %v", est.Value)
	}
	if math.IsNaN(est.Lower) || math.IsNaN(est.Upper) {
		t.Error("band must be finite")
	}
}

func TestBlend_BandContainsValue(t *testing.T) {
	cases := [][3]float64{
		{10, 0, 20},
		{1, 2, 3},
		{100, 5, 0},
		{0, 0, 7},
		{50, 50, 50},
	}
	weights := []classify.Weights{
		classify.Growth.Weights(),
		classify.Mature.Weights(),
		classify.AssetHeavy.Weights(),
		classify.Distressed.Weights(),
	}
	for _, vals := range cases {
		for _, w := range weights {
			est := Blend(vals, w)
			if est.Lower > est.Value || est.Value > est.Upper {
				t.Errorf("band [%v, %v] does not contain %v for %v/%+v",
					est.Lower, est.Upper, est.Value, vals, w)
			}
		}
	}
}

// --- Adjustments ---

func TestApplyAdjustments_Sequential(t *testing.T) {
	e := ApplyAdjustments(Estimate{Value: 100, Lower: 80, Upper: 120}, 40, 40)
	if !approx(e.Value, 85.5) {
		t.Errorf("expected 100×0.90×0.95 = 85.5, got %v", e.Value)
	}
	if !approx(e.Lower, 68.4) || !approx(e.Upper, 102.6) {
		t.Errorf("bounds should be discounted too, got [%v, %v]", e.Lower, e.Upper)
	}
}

func TestApplyAdjustments_Thresholds(t *testing.T) {
	tests := []struct {
		quality, health, want float64
	}{
		{50, 50, 100},
		{49.9, 50, 90},
		{50, 49.9, 95},
		{80, 10, 95},
	}
	for _, tt := range tests {
		e := ApplyAdjustments(Estimate{Value: 100}, tt.quality, tt.health)
		if !approx(e.Value, tt.want) {
			t.Errorf("quality=%v health=%v: expected %v, got %v", tt.quality, tt.health, tt.want, e.Value)
		}
	}
}

// --- Full pipeline ---

// bookOnly has a positive book value of 5/share and nothing else usable.
func bookOnly(ticker, ccy string, price float64) *model.CompanyFinancialData {
	return &model.CompanyFinancialData{
		Ticker:            ticker,
		Currency:          ccy,
		CurrentPrice:      f(price),
		SharesOutstanding: f(10),
		IncomeStatement:   model.Statement{"2024-12-31": {"Total Revenue": 100}},
		BalanceSheet: model.Statement{"2024-12-31": {
			"Total Assets":        60,
			"Stockholders Equity": 50,
		}},
	}
}

func TestCalculate_JSECentsNormalization(t *testing.T) {
	res := New(bookOnly("NPN.JO", "ZAR", 500), 0.04).Calculate(70, 70)

	if res.UnitMultiplier != 100 {
		t.Fatalf("expected multiplier 100, got %v", res.UnitMultiplier)
	}
	if !approx(res.Breakdown.AssetBased, 500) {
		t.Errorf("expected 5 rand → 500 cents, got %v", res.Breakdown.AssetBased)
	}
	if !approx(res.FairValue, 500) {
		t.Errorf("expected fair value 500, got %v", res.FairValue)
	}
	if res.ValidMethods != 1 {
		t.Errorf("expected 1 valid method, got %d", res.ValidMethods)
	}
	if got := res.InvalidMethods(); len(got) != 2 {
		t.Errorf("expected dcf and epv invalid, got %v", got)
	}
}

func TestCalculate_NoDataIsZeroNotError(t *testing.T) {
	res := New(&model.CompanyFinancialData{Ticker: "NONE"}, 0.04).Calculate(50, 50)
	if res.FairValue != 0 || res.ConfidenceLower != 0 || res.ConfidenceUpper != 0 {
		t.Errorf("expected all zeros, got %+v", res)
	}
	if res.Category != classify.Mature {
		t.Errorf("expected default category mature, got %s", res.Category)
	}
}

func TestCalculate_NonFiniteInputsSanitized(t *testing.T) {
	nan := math.NaN()
	c := &model.CompanyFinancialData{
		Ticker:            "NAN",
		Currency:          "USD",
		SharesOutstanding: f(10),
		CurrentPrice:      f(nan),
		Beta:              f(nan),
		IncomeStatement:   model.Statement{"2024-12-31": {"Total Revenue": nan, "Net Income": nan}},
		BalanceSheet: model.Statement{"2024-12-31": {
			"Total Assets":        math.Inf(1),
			"Stockholders Equity": nan,
		}},
		Cashflow: model.Statement{"2024-12-31": {"Operating Cash Flow": nan}},
	}
	res := New(c, 0.04).Calculate(40, 40)

	for name, v := range map[string]float64{
		"dcf":      res.Breakdown.DCF,
		"epv":      res.Breakdown.EarningsPower,
		"asset":    res.Breakdown.AssetBased,
		"weighted": res.Breakdown.WeightedAverage,
		"fair":     res.FairValue,
		"lower":    res.ConfidenceLower,
		"upper":    res.ConfidenceUpper,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("%s must be finite and non-negative, got %v", name, v)
		}
	}
}

func TestCalculate_UsesInjectedWeights(t *testing.T) {
	called := false
	provider := func(c classify.Category, _ *model.CompanyFinancialData) classify.Weights {
		called = true
		return classify.Weights{Asset: 1}
	}
	res := New(bookOnly("ACME", "USD", 4), 0.04, WithWeightProvider(provider)).Calculate(70, 70)
	if !called {
		t.Fatal("weight provider was not called")
	}
	if res.Weights != (classify.Weights{Asset: 1}) {
		t.Errorf("expected injected weights, got %+v", res.Weights)
	}
	if !approx(res.FairValue, 5) {
		t.Errorf("expected fair value 5, got %v", res.FairValue)
	}
}

func TestCalculate_WithWeightsAndDiscounts(t *testing.T) {
	res := New(bookOnly("ACME", "USD", 4), 0.04, WithWeights(classify.Weights{DCF: 0.5, Asset: 0.5})).Calculate(40, 40)
	if !approx(res.Breakdown.WeightedAverage, 5) {
		t.Errorf("expected pre-discount blend 5, got %v", res.Breakdown.WeightedAverage)
	}
	if !approx(res.FairValue, 5*0.9*0.95) {
		t.Errorf("expected discounted fair value %v, got %v", 5*0.9*0.95, res.FairValue)
	}
	if res.ConfidenceLower > res.FairValue || res.FairValue > res.ConfidenceUpper {
		t.Errorf("band [%v, %v] must contain %v", res.ConfidenceLower, res.ConfidenceUpper, res.FairValue)
	}
}

func TestCalculate_ClassifiesGrowth(t *testing.T) {
	c := bookOnly("GROW", "USD", 4)
	c.IncomeStatement["2023-12-31"] = map[string]float64{"Total Revenue": 50}
	res := New(c, 0.04).Calculate(70, 70)
	if res.Category != classify.Growth {
		t.Errorf("expected growth, got %s", res.Category)
	}
	if res.Weights != classify.Growth.Weights() {
		t.Errorf("expected growth weights, got %+v", res.Weights)
	}
}
