package format

import (
	"strings"

	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Fixed returns the amount rounded half-up to cents with exactly two fraction
// digits and no separators (e.g., "-1234.50").
func Fixed(amount decimal.Decimal) string {
	return amount.StringFixed(constants.MoneyScale)
}

// Grouped returns the amount with two fraction digits and thousands
// separators (e.g., "-1,234.50").
func Grouped(amount decimal.Decimal) string {
	formatted := Fixed(amount.Abs())
	if amount.Round(constants.MoneyScale).IsNegative() {
		return "-" + group(formatted)
	}
	return group(formatted)
}

func group(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
