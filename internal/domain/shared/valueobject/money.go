// Package valueobject holds the decimal helpers shared by ledger amounts.
// Amounts are kept at two decimal places.
package valueobject

import "github.com/shopspring/decimal"

// CentTolerance is the smallest difference treated as a real change in amount
var CentTolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// NonNegative returns d, or zero when d is negative
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Outstanding returns max(0, final - paid)
func Outstanding(final, paid decimal.Decimal) decimal.Decimal {
	return NonNegative(final.Sub(paid))
}

// DiffersBy reports whether a and b differ by at least the cent tolerance
func DiffersBy(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThanOrEqual(CentTolerance)
}

// MinDecimal returns the smallest of the given amounts
func MinDecimal(first decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	return decimal.Min(first, rest...)
}

// CentsToDecimal converts a minor-unit integer into a two-place decimal
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// DecimalToCents converts a decimal into minor units, rounding half away from zero
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
