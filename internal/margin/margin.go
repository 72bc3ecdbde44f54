// Package margin turns a fair value and a market price into a margin of
// safety, an upside figure, and a buy/hold/avoid recommendation with
// reasoning text.
package margin

import (
	"fmt"
	"strings"

	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
)

// DegenerateRatio is the price/intrinsic ratio reported when fair value is
// not positive.
const DegenerateRatio = 999.0

// Recommendation thresholds. Margins are percentages, scores 0–100.
const (
	StrongBuyMargin  = 50.0
	StrongBuyQuality = 70.0
	BuyMargin        = 30.0
	BuyQuality       = 60.0
	HoldMargin       = 10.0
	HoldQualityLow   = 50.0
	HoldQualityHigh  = 60.0

	// WeakScore marks quality or health low enough to add a caveat.
	WeakScore = 50.0
)

// Required margin components.
const (
	BaseRequiredMargin = 30.0
	LowQualityPremium  = 10.0
	LowHealthPremium   = 10.0
	HighBetaPremium    = 5.0
	SmallCapPremium    = 10.0

	RequiredScore = 60.0
	HighBeta      = 1.5
	SmallCap      = 2e9
)

// Inputs are the risk signals beside fair value and price.
type Inputs struct {
	Quality   float64  `json:"business_quality_score"`
	Health    float64  `json:"financial_health_score"`
	Beta      float64  `json:"beta"`
	MarketCap *float64 `json:"market_cap,omitempty"`
}

// DefaultInputs are neutral scores, market beta, and unknown market cap.
func DefaultInputs() Inputs {
	return Inputs{Quality: 50, Health: 50, Beta: 1.0}
}

// Result is the margin-of-safety outcome.
type Result struct {
	MarginOfSafety        float64              `json:"margin_of_safety"`
	UpsidePotential       float64              `json:"upside_potential"`
	PriceToIntrinsicValue float64              `json:"price_to_intrinsic_value"`
	Recommendation        model.Recommendation `json:"recommendation"`
	Reasoning             string               `json:"reasoning"`
	RequiredMargin        float64              `json:"required_margin"`
}

// Calculator compares one fair value with one price.
type Calculator struct {
	fairValue float64
	price     float64
}

// New creates a calculator. Non-finite inputs read as 0.
func New(fairValue, currentPrice float64) *Calculator {
	return &Calculator{
		fairValue: numeric.Finite(fairValue),
		price:     numeric.Finite(currentPrice),
	}
}

// RequiredMargin is the margin a careful buyer would want given the risk
// signals. It is reported, not used to gate the recommendation.
func RequiredMargin(in Inputs) float64 {
	req := BaseRequiredMargin
	if in.Quality < RequiredScore {
		req += LowQualityPremium
	}
	if in.Health < RequiredScore {
		req += LowHealthPremium
	}
	if in.Beta > HighBeta {
		req += HighBetaPremium
	}
	if in.MarketCap != nil && *in.MarketCap < SmallCap {
		req += SmallCapPremium
	}
	return req
}

// Recommend maps a margin of safety and a quality score to a recommendation.
// Branches are checked in order. Only the Strong Buy margin is inclusive, so
// a stock priced at exactly half its fair value still qualifies.
func Recommend(marginOfSafety, quality float64) model.Recommendation {
	switch {
	case marginOfSafety >= StrongBuyMargin && quality > StrongBuyQuality:
		return model.StrongBuy
	case marginOfSafety > BuyMargin && quality > BuyQuality:
		return model.Buy
	case marginOfSafety > HoldMargin || (quality >= HoldQualityLow && quality < HoldQualityHigh):
		return model.Hold
	default:
		return model.Avoid
	}
}

// Calculate produces the full result.
func (c *Calculator) Calculate(in Inputs) Result {
	res := Result{RequiredMargin: RequiredMargin(in)}

	if c.fairValue <= 0 {
		res.PriceToIntrinsicValue = DegenerateRatio
		res.Recommendation = model.Avoid
		res.Reasoning = "Insufficient data to estimate intrinsic value; no margin of safety can be established."
		return res
	}

	res.MarginOfSafety = numeric.Finite((c.fairValue - c.price) / c.fairValue * 100)
	if c.price > 0 {
		res.UpsidePotential = numeric.Finite((c.fairValue - c.price) / c.price * 100)
	}
	res.PriceToIntrinsicValue = numeric.Finite(c.price / c.fairValue)
	res.Recommendation = Recommend(res.MarginOfSafety, in.Quality)
	res.Reasoning = c.reasoning(res, in)
	return res
}

func (c *Calculator) reasoning(res Result, in Inputs) string {
	var b strings.Builder
	switch res.Recommendation {
	case model.StrongBuy:
		fmt.Fprintf(&b, "Trading at a %.1f%% discount to fair value of %.2f with high business quality (%.0f). ",
			res.MarginOfSafety, c.fairValue, in.Quality)
	case model.Buy:
		fmt.Fprintf(&b, "Trading at a %.1f%% discount to fair value of %.2f with solid business quality (%.0f). ",
			res.MarginOfSafety, c.fairValue, in.Quality)
	case model.Hold:
		if res.MarginOfSafety > HoldMargin {
			fmt.Fprintf(&b, "Modest %.1f%% margin of safety against fair value of %.2f; not enough for a buy at quality %.0f. ",
				res.MarginOfSafety, c.fairValue, in.Quality)
		} else {
			fmt.Fprintf(&b, "Price %.2f is close to fair value of %.2f; average business quality (%.0f) warrants holding. ",
				c.price, c.fairValue, in.Quality)
		}
	default:
		if res.MarginOfSafety < 0 {
			fmt.Fprintf(&b, "Price %.2f exceeds fair value of %.2f by %.1f%%. ",
				c.price, c.fairValue, -res.MarginOfSafety)
		} else {
			fmt.Fprintf(&b, "Margin of safety of %.1f%% is too thin to compensate for the risk. ", res.MarginOfSafety)
		}
	}

	fmt.Fprintf(&b, "Required margin given risk profile: %.0f%%.", res.RequiredMargin)

	if in.Quality < WeakScore {
		b.WriteString(" Caution: business quality is below average.")
	}
	if in.Health < WeakScore {
		b.WriteString(" Caution: financial health is weak.")
	}
	return b.String()
}
