// Package domain defines the orders, payment methods and allocation records
// shared by every part of the solver, together with the error kinds it
// reports.
package domain

import (
	"github.com/shopspring/decimal"
)

// Order is a purchasable unit with a gross value and the payment methods whose
// promotion applies to it.
type Order struct {
	ID         string
	Value      decimal.Decimal
	Promotions []string
}

// Eligible reports whether the order carries a promotion for methodID.
func (o Order) Eligible(methodID string) bool {
	for _, id := range o.Promotions {
		if id == methodID {
			return true
		}
	}
	return false
}

// PaymentMethod is a discount-bearing spending instrument with a finite limit.
type PaymentMethod struct {
	ID       string
	Discount int
	Limit    decimal.Decimal
}

// Rule names how an order was paid.
type Rule string

const (
	RuleFullCard      Rule = "full-card"
	RuleFullPoints    Rule = "full-points"
	RulePartialPoints Rule = "partial-points"
	RuleSplit         Rule = "split"
)

// Payment is one method's share of an order.
type Payment struct {
	MethodID string
	Amount   decimal.Decimal
}

// Allocation is the payment composition chosen for a single order.
type Allocation struct {
	OrderID  string
	Rule     Rule
	Payments []Payment
}

// Total returns the amount actually paid for the order.
func (a Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Payments {
		total = total.Add(p.Amount)
	}
	return total
}
