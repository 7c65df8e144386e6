// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Order builds an order eligible for the given promotions.
func Order(id, value string, promotions ...string) domain.Order {
	if promotions == nil {
		promotions = []string{}
	}
	return domain.Order{ID: id, Value: Dec(value), Promotions: promotions}
}

// Method builds a payment method.
func Method(id string, discount int, limit string) domain.PaymentMethod {
	return domain.PaymentMethod{ID: id, Discount: discount, Limit: Dec(limit)}
}

// FindAllocation finds the allocation of an order by id.
// Returns a pointer to the allocation if found, nil otherwise.
func FindAllocation(allocations []domain.Allocation, orderID string) *domain.Allocation {
	for i := range allocations {
		if allocations[i].OrderID == orderID {
			return &allocations[i]
		}
	}
	return nil
}
