// Package classify labels a company for weight selection and maps labels to
// (DCF, EPV, Asset) weight triples.
//
// Two closed enumerations exist:
//   - Category: the internal growth/maturity label derived from statements.
//   - BusinessType: the broader industry preset a caller may choose.
//
// Both resolve through exhaustive lookup tables; every triple sums to 1.0.
package classify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/atmx/valuation-engine/internal/assetval"
	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
	"github.com/atmx/valuation-engine/internal/statement"
)

// Revenue growth thresholds between the two most recent periods.
const (
	GrowthThreshold   = 0.15
	DistressThreshold = -0.10
)

var (
	// ErrUnknownBusinessType is returned for a business type outside the enum.
	ErrUnknownBusinessType = errors.New("classify: unknown business type")

	// ErrInvalidWeights is returned when a weight triple has a negative
	// component or does not sum to 1.
	ErrInvalidWeights = errors.New("classify: weights must be non-negative and sum to 1")
)

// Weights is a (DCF, EPV, Asset) triple.
type Weights struct {
	DCF   float64 `json:"dcf" validate:"gte=0,lte=1"`
	EPV   float64 `json:"epv" validate:"gte=0,lte=1"`
	Asset float64 `json:"asset" validate:"gte=0,lte=1"`
}

// Sum returns DCF + EPV + Asset.
func (w Weights) Sum() float64 {
	return w.DCF + w.EPV + w.Asset
}

// Array returns the triple in method order.
func (w Weights) Array() [3]float64 {
	return [3]float64{w.DCF, w.EPV, w.Asset}
}

// Validate checks the triple is usable as an override.
func (w Weights) Validate() error {
	if w.DCF < 0 || w.EPV < 0 || w.Asset < 0 || math.Abs(w.Sum()-1) > 1e-6 {
		return fmt.Errorf("%w: got %.4f/%.4f/%.4f", ErrInvalidWeights, w.DCF, w.EPV, w.Asset)
	}
	return nil
}

// Category is the statement-derived business category.
type Category string

const (
	Growth     Category = "growth"
	Mature     Category = "mature"
	AssetHeavy Category = "asset_heavy"
	Distressed Category = "distressed"
)

var categoryWeights = map[Category]Weights{
	Growth:     {DCF: 0.50, EPV: 0.30, Asset: 0.20},
	Mature:     {DCF: 0.40, EPV: 0.40, Asset: 0.20},
	AssetHeavy: {DCF: 0.30, EPV: 0.30, Asset: 0.40},
	Distressed: {DCF: 0.20, EPV: 0.20, Asset: 0.60},
}

// Categories lists every category.
func Categories() []Category {
	return []Category{Growth, Mature, AssetHeavy, Distressed}
}

// Weights returns the preset triple for c; unknown categories fall back to
// the mature preset.
func (c Category) Weights() Weights {
	if w, ok := categoryWeights[c]; ok {
		return w
	}
	return categoryWeights[Mature]
}

// RevenueGrowth is the relative change in revenue between the two most
// recent periods, 0 when either period is missing or the base is zero.
func RevenueGrowth(data *model.CompanyFinancialData) float64 {
	income := statement.NewView(data.IncomeStatement)
	revenue := income.Series(statement.Revenue...)
	if len(revenue) < 2 {
		return 0
	}
	return numeric.SafeDiv(revenue[0]-revenue[1], math.Abs(revenue[1]))
}

// Classify derives the category. Growth and distress signals take
// precedence over asset intensity.
func Classify(data *model.CompanyFinancialData, intensity assetval.Intensity) Category {
	g := RevenueGrowth(data)
	switch {
	case g > GrowthThreshold:
		return Growth
	case g < DistressThreshold:
		return Distressed
	case intensity == assetval.AssetHeavy:
		return AssetHeavy
	default:
		return Mature
	}
}

// WeightProvider selects the weight triple for a valuation. It is supplied
// at construction time of the intrinsic value calculator.
type WeightProvider func(c Category, data *model.CompanyFinancialData) Weights

// CategoryWeights is the default provider: the category preset.
func CategoryWeights(c Category, _ *model.CompanyFinancialData) Weights {
	return c.Weights()
}

// FixedWeights always returns w.
func FixedWeights(w Weights) WeightProvider {
	return func(Category, *model.CompanyFinancialData) Weights { return w }
}

// PresetWeights always returns the preset of bt.
func PresetWeights(bt BusinessType) WeightProvider {
	return FixedWeights(bt.Weights())
}

// DetectedWeights picks the preset of the business type detected from the
// company's sector and industry, falling back to the category preset when
// detection yields the default type.
func DetectedWeights(c Category, data *model.CompanyFinancialData) Weights {
	bt := DetectBusinessType(data.Sector, data.Industry)
	if bt == Default {
		return c.Weights()
	}
	return bt.Weights()
}

// normalizeName lower-cases and converts separators to underscores.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
