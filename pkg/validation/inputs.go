package validation

import (
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/shopspring/decimal"
)

// InputWarnings reports input that is valid but probably not what the caller
// meant. It never rejects anything.
func InputWarnings(orders []domain.Order, methods []domain.PaymentMethod, pointsID string) []string {
	var warnings []string

	known := make(map[string]bool, len(methods))
	combined := decimal.Zero
	for _, m := range methods {
		known[m.ID] = true
		combined = combined.Add(m.Limit)
		if m.Limit.IsZero() {
			warnings = append(warnings, fmt.Sprintf("Payment method '%s' has a zero limit and will never be used", m.ID))
		}
	}

	if !known[pointsID] {
		warnings = append(warnings, fmt.Sprintf("No points wallet '%s' configured - points rules are disabled", pointsID))
	}

	for _, o := range orders {
		for _, promo := range o.Promotions {
			switch {
			case promo == pointsID:
				warnings = append(warnings, fmt.Sprintf("Order '%s' lists the points wallet '%s' as a promotion - it has no effect", o.ID, promo))
			case !known[promo]:
				warnings = append(warnings, fmt.Sprintf("Order '%s' has a promotion for unknown payment method '%s'", o.ID, promo))
			}
		}
		if o.Value.GreaterThan(combined) {
			warnings = append(warnings, fmt.Sprintf("Order '%s' value %s exceeds the combined limit %s of all payment methods",
				o.ID, o.Value.StringFixed(2), combined.StringFixed(2)))
		}
	}

	return warnings
}
