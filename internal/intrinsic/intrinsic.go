// Package intrinsic blends the DCF, EPV, and asset-based valuations into a
// single fair value with a confidence band.
//
// One synchronous pass per call:
//  1. classify the business (growth, mature, asset_heavy, distressed)
//  2. pick a weight triple through the injected WeightProvider
//  3. scale each per-share value into the unit of the quoted price
//  4. blend, redistributing weight away from methods that produced ≤ 0
//  5. derive the confidence band from the spread of valid methods
//  6. discount for weak business quality and financial health
//  7. coerce every output to a finite, non-negative number
package intrinsic

import (
	"log/slog"
	"math"

	"github.com/atmx/valuation-engine/internal/assetval"
	"github.com/atmx/valuation-engine/internal/classify"
	"github.com/atmx/valuation-engine/internal/currency"
	"github.com/atmx/valuation-engine/internal/dcf"
	"github.com/atmx/valuation-engine/internal/epv"
	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
)

const (
	// BandFactor scales the spread of valid method values into the
	// half-width of the confidence band.
	BandFactor = 0.2
	// FallbackBand is the half-width, as a fraction of the blend, used when
	// no method is valid.
	FallbackBand = 0.2

	// ScoreThreshold marks quality and health scores as weak.
	ScoreThreshold  = 50.0
	QualityDiscount = 0.90
	HealthDiscount  = 0.95
)

// Method indices into value and weight arrays.
const (
	MethodDCF = iota
	MethodEPV
	MethodAsset
)

// MethodNames maps method indices to labels.
var MethodNames = [3]string{"dcf", "epv", "asset"}

// Params groups the tunables of the underlying methods.
type Params struct {
	DCF dcf.Params `yaml:"dcf"`
	EPV epv.Params `yaml:"epv"`
}

// DefaultParams returns the standard method assumptions.
func DefaultParams() Params {
	return Params{DCF: dcf.DefaultParams(), EPV: epv.DefaultParams()}
}

// Estimate is a value with its confidence band.
type Estimate struct {
	Value        float64 `json:"value"`
	Lower        float64 `json:"lower"`
	Upper        float64 `json:"upper"`
	ValidMethods int     `json:"valid_methods"`
}

// Blend computes the weighted value of three per-share values.
//
// A value ≤ 0 is invalid. Weights of invalid methods are dropped and the
// remaining weights renormalized to sum to 1. If nothing valid remains, or
// the valid methods carry no weight, the raw weighted sum of all three is
// returned instead.
func Blend(values [3]float64, w classify.Weights) Estimate {
	weights := w.Array()

	var validSum, validWeight, rawSum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	est := Estimate{}
	for i, v := range values {
		v = numeric.Finite(v)
		rawSum += v * weights[i]
		if v <= 0 {
			continue
		}
		est.ValidMethods++
		validSum += v * weights[i]
		validWeight += weights[i]
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if est.ValidMethods > 0 && validWeight > 0 {
		est.Value = validSum / validWeight
	} else {
		est.Value = rawSum
	}

	if est.ValidMethods > 0 {
		spread := hi - lo
		est.Lower = est.Value - BandFactor*spread
		est.Upper = est.Value + BandFactor*spread
	} else {
		est.Lower = est.Value * (1 - FallbackBand)
		est.Upper = est.Value * (1 + FallbackBand)
	}
	return est
}

// ApplyAdjustments discounts the estimate by QualityDiscount when quality is
// weak and then by HealthDiscount when health is weak.
func ApplyAdjustments(e Estimate, quality, health float64) Estimate {
	if quality < ScoreThreshold {
		e = scale(e, QualityDiscount)
	}
	if health < ScoreThreshold {
		e = scale(e, HealthDiscount)
	}
	return e
}

func scale(e Estimate, f float64) Estimate {
	e.Value *= f
	e.Lower *= f
	e.Upper *= f
	return e
}

// Result is the outcome of one intrinsic value calculation. Breakdown values
// and the band are in the unit of the quoted price.
type Result struct {
	FairValue       float64                  `json:"fair_value"`
	ConfidenceLower float64                  `json:"confidence_lower"`
	ConfidenceUpper float64                  `json:"confidence_upper"`
	Breakdown       model.ValuationBreakdown `json:"breakdown"`
	Category        classify.Category        `json:"category"`
	Weights         classify.Weights         `json:"weights"`
	UnitMultiplier  float64                  `json:"unit_multiplier"`
	ValidMethods    int                      `json:"valid_methods"`

	DCF   dcf.Result      `json:"dcf_detail"`
	EPV   epv.Result      `json:"epv_detail"`
	Asset assetval.Result `json:"asset_detail"`
}

// Calculator runs the blend for one company snapshot.
type Calculator struct {
	data    *model.CompanyFinancialData
	rf      float64
	params  Params
	weights classify.WeightProvider
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithWeightProvider replaces the category-based weight selection.
func WithWeightProvider(p classify.WeightProvider) Option {
	return func(c *Calculator) {
		if p != nil {
			c.weights = p
		}
	}
}

// WithWeights fixes the weight triple.
func WithWeights(w classify.Weights) Option {
	return WithWeightProvider(classify.FixedWeights(w))
}

// WithParams overrides the method assumptions.
func WithParams(p Params) Option {
	return func(c *Calculator) { c.params = p }
}

// New creates a calculator for data at the given risk-free rate.
func New(data *model.CompanyFinancialData, riskFreeRate float64, opts ...Option) *Calculator {
	c := &Calculator{
		data:    data,
		rf:      riskFreeRate,
		params:  DefaultParams(),
		weights: classify.CategoryWeights,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate runs all three methods and blends them. Quality feeds the EPV
// capitalization rate; quality and health both drive the final discount.
func (c *Calculator) Calculate(quality, health float64) Result {
	res := Result{
		Asset: assetval.New(c.data).Calculate(),
		DCF:   dcf.New(c.data, c.rf, c.params.DCF).Calculate(),
		EPV:   epv.New(c.data, c.rf, c.params.EPV).Calculate(quality),
	}
	res.Category = classify.Classify(c.data, res.Asset.Intensity)
	res.Weights = c.weights(res.Category, c.data)
	if err := res.Weights.Validate(); err != nil {
		slog.Warn("intrinsic: weight provider returned unnormalized weights", "ticker", c.data.Ticker, "err", err)
	}

	res.UnitMultiplier = currency.ForCompany(c.data)
	values := [3]float64{
		currency.Normalize(res.DCF.PerShare, res.UnitMultiplier),
		currency.Normalize(res.EPV.PerShare, res.UnitMultiplier),
		currency.Normalize(res.Asset.PerShare, res.UnitMultiplier),
	}

	blended := Blend(values, res.Weights)
	adjusted := ApplyAdjustments(blended, quality, health)

	res.ValidMethods = blended.ValidMethods
	res.Breakdown = model.ValuationBreakdown{
		DCF:             numeric.NonNegative(values[MethodDCF]),
		EarningsPower:   numeric.NonNegative(values[MethodEPV]),
		AssetBased:      numeric.NonNegative(values[MethodAsset]),
		WeightedAverage: numeric.NonNegative(blended.Value),
	}
	res.FairValue = numeric.NonNegative(adjusted.Value)
	res.ConfidenceLower = numeric.NonNegative(adjusted.Lower)
	res.ConfidenceUpper = numeric.NonNegative(adjusted.Upper)

	slog.Debug("intrinsic value calculated",
		"ticker", c.data.Ticker,
		"category", res.Category,
		"dcf", res.Breakdown.DCF,
		"epv", res.Breakdown.EarningsPower,
		"asset", res.Breakdown.AssetBased,
		"fair_value", res.FairValue,
		"valid_methods", res.ValidMethods,
	)
	return res
}

// InvalidMethods returns the names of methods whose value was ≤ 0.
func (r Result) InvalidMethods() []string {
	var out []string
	for i, v := range []float64{r.Breakdown.DCF, r.Breakdown.EarningsPower, r.Breakdown.AssetBased} {
		if v <= 0 {
			out = append(out, MethodNames[i])
		}
	}
	return out
}
