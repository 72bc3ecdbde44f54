// Package currency reconciles the unit of statement-derived per-share values
// with the unit of the quoted price.
//
// Some venues quote in a minor unit (pence, cents, agorot) while statements
// are reported in the major unit. Valuation outputs are scaled by 100 in
// that case so that price and value can be compared and averaged.
package currency

import (
	"strings"

	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/numeric"
	"github.com/atmx/valuation-engine/internal/ticker"
)

// SubunitFactor is the ratio between major and minor units.
const SubunitFactor = 100.0

// jseCentsThreshold: JSE prices above this are taken to be ZA cents.
const jseCentsThreshold = 10.0

// subunitCodes are explicit minor-unit currency codes as reported by quote
// providers.
var subunitCodes = map[string]bool{
	"GBp": true,
	"GBX": true,
	"ZAc": true,
	"ZAC": true,
	"ILA": true,
	"ILa": true,
}

// IsSubunit reports whether code denotes a minor currency unit: an explicit
// subunit code, or any code ending in C or X.
func IsSubunit(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if subunitCodes[code] {
		return true
	}
	upper := strings.ToUpper(code)
	return strings.HasSuffix(upper, "C") || strings.HasSuffix(upper, "X")
}

// Multiplier returns the factor that converts statement-unit per-share
// values into price units: SubunitFactor for subunit quotes, else 1.
//
// JSE listings are often reported as "ZAR" although priced in cents, so a
// .JO ticker priced above jseCentsThreshold is treated as a cents quote.
func Multiplier(code, symbol string, price float64) float64 {
	if IsSubunit(code) {
		return SubunitFactor
	}
	if t, err := ticker.Parse(symbol); err == nil && t.OnExchange(ticker.Johannesburg) && price > jseCentsThreshold {
		return SubunitFactor
	}
	return 1
}

// ForCompany returns the multiplier for c. Statements already reported in
// the minor unit need no scaling.
func ForCompany(c *model.CompanyFinancialData) float64 {
	if IsSubunit(c.FinancialCurrency) {
		return 1
	}
	return Multiplier(c.Currency, c.Ticker, c.Price())
}

// Normalize scales v by m and sanitizes the result.
func Normalize(v, m float64) float64 {
	return numeric.NonNegative(v * m)
}
