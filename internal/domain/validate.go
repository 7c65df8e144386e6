package domain

import (
	"strings"

	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/mathutil"
)

// ValidateOrders checks that every order has a unique id and a positive value
// expressible in whole cents.
func ValidateOrders(orders []Order) error {
	seen := make(map[string]struct{}, len(orders))
	for i, o := range orders {
		if strings.TrimSpace(o.ID) == "" {
			return InvalidArgument("order at index %d has an empty id", i)
		}
		if _, dup := seen[o.ID]; dup {
			return InvalidArgument("duplicate order id %s", o.ID)
		}
		seen[o.ID] = struct{}{}
		if !mathutil.IsPositive(o.Value) {
			return InvalidArgument("order %s value must be positive, got %s", o.ID, o.Value.String())
		}
		if !mathutil.HasCents(o.Value) {
			return InvalidArgument("order %s value %s has more than %d fraction digits",
				o.ID, o.Value.String(), constants.MoneyScale)
		}
	}
	return nil
}

// ValidateMethods checks that every payment method has a unique id, a discount
// within [0,100] and a non-negative limit expressible in whole cents.
func ValidateMethods(methods []PaymentMethod) error {
	seen := make(map[string]struct{}, len(methods))
	for i, m := range methods {
		if strings.TrimSpace(m.ID) == "" {
			return InvalidArgument("payment method at index %d has an empty id", i)
		}
		if _, dup := seen[m.ID]; dup {
			return InvalidArgument("duplicate payment method id %s", m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.Discount < 0 || m.Discount > constants.MaxDiscountPercent {
			return InvalidArgument("payment method %s discount %d outside [0,%d]",
				m.ID, m.Discount, constants.MaxDiscountPercent)
		}
		if mathutil.IsNegative(m.Limit) {
			return InvalidArgument("payment method %s limit must not be negative, got %s", m.ID, m.Limit.String())
		}
		if !mathutil.HasCents(m.Limit) {
			return InvalidArgument("payment method %s limit %s has more than %d fraction digits",
				m.ID, m.Limit.String(), constants.MoneyScale)
		}
	}
	return nil
}
