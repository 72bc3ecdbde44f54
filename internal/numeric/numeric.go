// Package numeric holds the float guards shared by every valuation method.
// Statement data is incomplete and divisions by zero are routine, so every
// component boundary passes its outputs through these helpers instead of
// re-deriving the checks at each call site.
package numeric

import "math"

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NonNegative returns Finite(v) floored at 0.
func NonNegative(v float64) float64 {
	v = Finite(v)
	if v < 0 {
		return 0
	}
	return v
}

// SafeDiv divides a by b, returning 0 for a zero denominator or a
// non-finite quotient.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Finite(a / b)
}

// Clamp bounds v to [lo, hi]. A non-finite v collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
