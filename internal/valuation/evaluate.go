// Package valuation wires the engine into a service: weight resolution, the
// full intrinsic value and margin-of-safety pipeline, persistence, HTTP
// handlers, and WebSocket broadcasts of completed valuations.
package valuation

import (
	"github.com/atmx/valuation-engine/internal/assetval"
	"github.com/atmx/valuation-engine/internal/classify"
	"github.com/atmx/valuation-engine/internal/dcf"
	"github.com/atmx/valuation-engine/internal/epv"
	"github.com/atmx/valuation-engine/internal/intrinsic"
	"github.com/atmx/valuation-engine/internal/margin"
	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
)

// AutoBusinessType asks for the business type to be detected from the
// company's sector and industry.
const AutoBusinessType = "auto"

// Weight sources reported in Report.WeightSource.
const (
	SourceExplicit     = "explicit"
	SourceBusinessType = "business_type"
	SourceDetected     = "detected"
	SourceCategory     = "category"
)

// Options are the per-valuation inputs beside the company data.
type Options struct {
	RiskFreeRate float64
	Quality      float64
	Health       float64
	// BusinessType is a preset name, AutoBusinessType, or empty.
	BusinessType classify.BusinessType
	// Weights, when set, override every other weight source.
	Weights *classify.Weights
	Params  intrinsic.Params
}

// DefaultOptions are neutral scores with the standard method assumptions.
func DefaultOptions(riskFreeRate float64) Options {
	in := margin.DefaultInputs()
	return Options{
		RiskFreeRate: riskFreeRate,
		Quality:      in.Quality,
		Health:       in.Health,
		Params:       intrinsic.DefaultParams(),
	}
}

// Report is the outcome of one valuation.
type Report struct {
	Ticker          string                   `json:"ticker"`
	Currency        string                   `json:"currency"`
	CurrentPrice    float64                  `json:"current_price"`
	FairValue       float64                  `json:"fair_value"`
	ConfidenceLower float64                  `json:"confidence_lower"`
	ConfidenceUpper float64                  `json:"confidence_upper"`
	Breakdown       model.ValuationBreakdown `json:"breakdown"`
	Category        classify.Category        `json:"category"`
	BusinessType    string                   `json:"business_type,omitempty"`
	WeightSource    string                   `json:"weight_source"`
	Weights         classify.Weights         `json:"weights"`
	UnitMultiplier  float64                  `json:"unit_multiplier"`
	InvalidMethods  []string                 `json:"invalid_methods"`
	margin.Result

	DCF   dcf.Result      `json:"dcf_detail"`
	EPV   epv.Result      `json:"epv_detail"`
	Asset assetval.Result `json:"asset_detail"`
}

// ResolveWeights picks the weight provider. Precedence: explicit weights,
// then a named business type, then sector detection, then the category
// preset. The returned business type is empty when none applies.
func ResolveWeights(data *model.CompanyFinancialData, opts Options) (classify.WeightProvider, string, classify.BusinessType) {
	switch {
	case opts.Weights != nil:
		return classify.FixedWeights(*opts.Weights), SourceExplicit, ""
	case opts.BusinessType == AutoBusinessType:
		bt := classify.DetectBusinessType(data.Sector, data.Industry)
		if bt == classify.Default {
			return classify.CategoryWeights, SourceCategory, bt
		}
		return classify.DetectedWeights, SourceDetected, bt
	case opts.BusinessType != "":
		return classify.PresetWeights(opts.BusinessType), SourceBusinessType, opts.BusinessType
	default:
		return classify.CategoryWeights, SourceCategory, ""
	}
}

// Evaluate runs the full pipeline. It never fails: missing data degrades to
// a zero fair value and an Avoid recommendation.
func Evaluate(data *model.CompanyFinancialData, opts Options) Report {
	provider, source, bt := ResolveWeights(data, opts)

	res := intrinsic.New(data, opts.RiskFreeRate,
		intrinsic.WithWeightProvider(provider),
		intrinsic.WithParams(opts.Params),
	).Calculate(opts.Quality, opts.Health)

	price := numeric.NonNegative(data.Price())
	mos := margin.New(res.FairValue, price).Calculate(marginInputs(data, opts))

	return Report{
		Ticker:          data.Ticker,
		Currency:        data.Currency,
		CurrentPrice:    price,
		FairValue:       res.FairValue,
		ConfidenceLower: res.ConfidenceLower,
		ConfidenceUpper: res.ConfidenceUpper,
		Breakdown:       res.Breakdown,
		Category:        res.Category,
		BusinessType:    string(bt),
		WeightSource:    source,
		Weights:         res.Weights,
		UnitMultiplier:  res.UnitMultiplier,
		InvalidMethods:  res.InvalidMethods(),
		Result:          mos,
		DCF:             res.DCF,
		EPV:             res.EPV,
		Asset:           res.Asset,
	}
}

func marginInputs(data *model.CompanyFinancialData, opts Options) margin.Inputs {
	in := margin.Inputs{Quality: opts.Quality, Health: opts.Health, Beta: margin.DefaultInputs().Beta}
	// A zero beta means the feed had none; keep the default, as dcf does.
	if data.Beta != nil && numeric.Finite(*data.Beta) != 0 {
		in.Beta = *data.Beta
	}
	if data.MarketCap != nil && *data.MarketCap > 0 {
		in.MarketCap = data.MarketCap
	}
	return in
}
