package margin

import (
	"math"
	"strings"
	"testing"

	"github.com/atmx/valuation-engine/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculate_StrongBuyBoundary(t *testing.T) {
	in := DefaultInputs()
	in.Quality = 75
	res := New(100, 50).Calculate(in)

	if !approx(res.MarginOfSafety, 50) {
		t.Errorf("expected margin 50, got %v", res.MarginOfSafety)
	}
	if !approx(res.UpsidePotential, 100) {
		t.Errorf("expected upside 100, got %v", res.UpsidePotential)
	}
	if !approx(res.PriceToIntrinsicValue, 0.5) {
		t.Errorf("expected P/IV 0.5, got %v", res.PriceToIntrinsicValue)
	}
	if res.Recommendation != model.StrongBuy {
		t.Errorf("expected Strong Buy, got %s", res.Recommendation)
	}
}

func TestCalculate_DegenerateFairValue(t *testing.T) {
	for _, price := range []float64{0, 10, 1e6} {
		for _, fv := range []float64{0, -5, math.NaN()} {
			res := New(fv, price).Calculate(DefaultInputs())
			if res.Recommendation != model.Avoid {
				t.Errorf("fv=%v price=%v: expected Avoid, got %s", fv, price, res.Recommendation)
			}
			if res.PriceToIntrinsicValue != DegenerateRatio {
				t.Errorf("fv=%v price=%v: expected ratio 999, got %v", fv, price, res.PriceToIntrinsicValue)
			}
			if res.MarginOfSafety != 0 || res.UpsidePotential != 0 {
				t.Errorf("fv=%v price=%v: expected zero margin/upside, got %+v", fv, price, res)
			}
			if !strings.Contains(strings.ToLower(res.Reasoning), "insufficient data") {
				t.Errorf("unexpected reasoning %q", res.Reasoning)
			}
		}
	}
}

func TestCalculate_ZeroPriceHasNoUpside(t *testing.T) {
	res := New(100, 0).Calculate(DefaultInputs())
	if res.UpsidePotential != 0 {
		t.Errorf("expected upside 0, got %v", res.UpsidePotential)
	}
	if !approx(res.MarginOfSafety, 100) {
		t.Errorf("expected margin 100, got %v", res.MarginOfSafety)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		margin  float64
		quality float64
		want    model.Recommendation
	}{
		{"strong buy", 60, 80, model.StrongBuy},
		{"big margin, ok quality", 60, 65, model.Buy},
		{"quality exactly 70 is not strong", 60, 70, model.Buy},
		{"buy", 35, 65, model.Buy},
		{"margin without quality", 40, 40, model.Hold},
		{"thin margin, mid quality", 5, 55, model.Hold},
		{"quality 60 is not mid band", 5, 60, model.Avoid},
		{"overpriced", -20, 90, model.Avoid},
		{"thin margin, weak quality", 5, 30, model.Avoid},
		{"margin exactly 50 is strong", 50, 75, model.StrongBuy},
		{"margin exactly 30 is not buy", 30, 65, model.Hold},
		{"margin just over 30 is buy", 30.01, 65, model.Buy},
		{"margin exactly 10 is not hold", 10, 65, model.Avoid},
		{"margin just over 10 is hold", 10.01, 65, model.Hold},
	}
	for _, tt := range tests {
		if got := Recommend(tt.margin, tt.quality); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestRequiredMargin(t *testing.T) {
	small := 5e8
	large := 5e10
	tests := []struct {
		name string
		in   Inputs
		want float64
	}{
		{"clean", Inputs{Quality: 80, Health: 80, Beta: 1, MarketCap: &large}, 30},
		{"unknown cap", Inputs{Quality: 80, Health: 80, Beta: 1}, 30},
		{"defaults", DefaultInputs(), 50},
		{"everything", Inputs{Quality: 10, Health: 10, Beta: 2, MarketCap: &small}, 65},
		{"beta only", Inputs{Quality: 80, Health: 80, Beta: 1.6}, 35},
	}
	for _, tt := range tests {
		if got := RequiredMargin(tt.in); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestCalculate_RequiredMarginDoesNotGate(t *testing.T) {
	small := 1e8
	in := Inputs{Quality: 75, Health: 40, Beta: 2, MarketCap: &small}
	res := New(100, 48).Calculate(in)
	if res.RequiredMargin <= res.MarginOfSafety {
		t.Fatalf("test setup: required %v should exceed margin %v", res.RequiredMargin, res.MarginOfSafety)
	}
	if res.Recommendation != model.StrongBuy {
		t.Errorf("expected Strong Buy regardless of required margin, got %s", res.Recommendation)
	}
}

func TestCalculate_Caveats(t *testing.T) {
	res := New(100, 95).Calculate(Inputs{Quality: 40, Health: 40, Beta: 1})
	if !strings.Contains(res.Reasoning, "business quality is below average") {
		t.Errorf("missing quality caveat: %q", res.Reasoning)
	}
	if !strings.Contains(res.Reasoning, "financial health is weak") {
		t.Errorf("missing health caveat: %q", res.Reasoning)
	}

	res = New(100, 95).Calculate(Inputs{Quality: 80, Health: 80, Beta: 1})
	if strings.Contains(res.Reasoning, "Caution") {
		t.Errorf("unexpected caveat: %q", res.Reasoning)
	}
}

func TestCalculate_RecommendationAlwaysValid(t *testing.T) {
	for _, fv := range []float64{0, 50, 100, 200} {
		for _, p := range []float64{0, 40, 100, 300} {
			for _, q := range []float64{0, 55, 65, 90} {
				res := New(fv, p).Calculate(Inputs{Quality: q, Health: 50, Beta: 1})
				if !res.Recommendation.Valid() {
					t.Errorf("fv=%v p=%v q=%v: invalid recommendation %q", fv, p, q, res.Recommendation)
				}
			}
		}
	}
}
