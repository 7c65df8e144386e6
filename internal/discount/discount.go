// Package discount converts between gross and discounted amounts.
//
// Factors are computed at eight fraction digits and results are rounded
// half-up to cents, so the same inputs always produce the same amount.
package discount

import (
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(constants.PercentageMultiplier)

func factor(pct int) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(
		decimal.NewFromInt(int64(pct)).DivRound(hundred, constants.CalculationScale),
	)
}

// Apply returns amount reduced by pct percent.
func Apply(amount *decimal.Decimal, pct int) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, domain.InvalidArgument("amount is required")
	}
	if pct < 0 || pct > constants.MaxDiscountPercent {
		return decimal.Zero, domain.InvalidArgument("discount percent %d outside [0,%d]", pct, constants.MaxDiscountPercent)
	}
	return amount.Mul(factor(pct)).Round(constants.MoneyScale), nil
}

// Reverse returns the gross amount that Apply would reduce to discounted.
// A 100% discount has no inverse.
func Reverse(discounted *decimal.Decimal, pct int) (decimal.Decimal, error) {
	if discounted == nil {
		return decimal.Zero, domain.InvalidArgument("discounted amount is required")
	}
	if pct < 0 || pct >= constants.MaxDiscountPercent {
		return decimal.Zero, domain.InvalidArgument("discount percent %d outside [0,%d)", pct, constants.MaxDiscountPercent)
	}
	return discounted.DivRound(factor(pct), constants.CalculationScale).Round(constants.MoneyScale), nil
}

// MustApply is Apply for callers that already validated pct, e.g. against a
// frozen payment method.
func MustApply(amount decimal.Decimal, pct int) decimal.Decimal {
	out, err := Apply(&amount, pct)
	if err != nil {
		panic(err)
	}
	return out
}
