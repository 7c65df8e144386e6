// Package mathutil provides common monetary utility functions.
package mathutil

import (
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	centsPerUnit = decimal.NewFromInt(constants.CentsPerUnit)
	oneCent      = decimal.New(1, -constants.MoneyScale)
)

// Round rounds a value half-up to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.MoneyScale)
}

// OneCent returns the smallest representable monetary step.
func OneCent() decimal.Decimal {
	return oneCent
}

// IsZero checks if a value is exactly zero
func IsZero(val decimal.Decimal) bool {
	return val.IsZero()
}

// IsPositive checks if a value is strictly greater than zero
func IsPositive(val decimal.Decimal) bool {
	return val.IsPositive()
}

// IsNegative checks if a value is strictly less than zero
func IsNegative(val decimal.Decimal) bool {
	return val.IsNegative()
}

// HasCents reports whether val carries at most two significant fraction digits.
func HasCents(val decimal.Decimal) bool {
	return val.Equal(Round(val))
}

// ToCents converts an amount to whole cents. The second return value is false
// when the amount is not exactly representable in cents.
func ToCents(val decimal.Decimal) (int64, bool) {
	scaled := val.Mul(centsPerUnit)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, false
	}
	return scaled.IntPart(), true
}

// FloorCents converts an amount to whole cents, dropping any sub-cent remainder.
func FloorCents(val decimal.Decimal) int64 {
	return val.Mul(centsPerUnit).Floor().IntPart()
}

// FromCents converts whole cents back to a two-digit amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -constants.MoneyScale)
}

// Min returns the minimum of two values
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the maximum of two values
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds all values together.
func Sum(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}

// CeilPercentage returns percentage% of value rounded up to whole cents, so the
// result is never below the exact share.
func CeilPercentage(value decimal.Decimal, percentage int) decimal.Decimal {
	return value.Mul(decimal.NewFromInt(int64(percentage))).
		Div(decimal.NewFromInt(constants.PercentageMultiplier)).
		RoundCeil(constants.MoneyScale)
}
