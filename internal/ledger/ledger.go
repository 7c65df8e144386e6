// Package ledger tracks how much of each payment method a single scenario run
// has spent and how much of its limit remains.
package ledger

import (
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger holds spent and remaining-limit amounts per payment method. For every
// method spent + remaining always equals the method's original limit.
// A Ledger belongs to exactly one scenario run and is not safe for concurrent use.
type Ledger struct {
	methodIDs []string
	original  map[string]decimal.Decimal
	spent     map[string]decimal.Decimal
	remaining map[string]decimal.Decimal
}

// New creates a fresh ledger from the frozen method definitions.
func New(methods []domain.PaymentMethod) *Ledger {
	ids := make([]string, 0, len(methods))
	for _, m := range methods {
		ids = append(ids, m.ID)
	}
	return &Ledger{
		methodIDs: ids,
		original:  InitializeLimits(methods),
		spent:     InitializeSpent(methods),
		remaining: InitializeLimits(methods),
	}
}

// InitializeLimits copies each method's configured limit.
func InitializeLimits(methods []domain.PaymentMethod) map[string]decimal.Decimal {
	limits := make(map[string]decimal.Decimal, len(methods))
	for _, m := range methods {
		limits[m.ID] = m.Limit
	}
	return limits
}

// InitializeSpent returns a zero spent amount for every method.
func InitializeSpent(methods []domain.PaymentMethod) map[string]decimal.Decimal {
	spent := make(map[string]decimal.Decimal, len(methods))
	for _, m := range methods {
		spent[m.ID] = decimal.Zero
	}
	return spent
}

// ApplyPayment moves amount from methodID's remaining limit to its spent total.
// The ledger is left untouched when an error is returned.
func (l *Ledger) ApplyPayment(methodID string, amount decimal.Decimal) error {
	if methodID == "" {
		return domain.InvalidArgument("payment method id is required")
	}
	if amount.IsNegative() {
		return domain.InvalidArgument("payment amount cannot be negative: %s", amount.String())
	}
	remaining, ok := l.remaining[methodID]
	if !ok {
		return domain.InvalidArgument("payment method not found: %s", methodID)
	}
	if amount.GreaterThan(remaining) {
		return fmt.Errorf("%w for %s: paying %s leaves %s", domain.ErrLimitExceeded,
			methodID, amount.StringFixed(2), remaining.Sub(amount).StringFixed(2))
	}
	l.remaining[methodID] = remaining.Sub(amount)
	l.spent[methodID] = l.spent[methodID].Add(amount)
	return nil
}

// Remaining returns the unspent limit of methodID, zero for unknown methods.
func (l *Ledger) Remaining(methodID string) decimal.Decimal {
	return l.remaining[methodID]
}

// Spent returns the amount spent with methodID, zero for unknown methods.
func (l *Ledger) Spent(methodID string) decimal.Decimal {
	return l.spent[methodID]
}

// Original returns the limit methodID started the run with.
func (l *Ledger) Original(methodID string) decimal.Decimal {
	return l.original[methodID]
}

// Covers reports whether methodID can still absorb amount.
func (l *Ledger) Covers(methodID string, amount decimal.Decimal) bool {
	remaining, ok := l.remaining[methodID]
	return ok && remaining.GreaterThanOrEqual(amount)
}

// TotalSpent sums the spent amount across all methods.
func (l *Ledger) TotalSpent() decimal.Decimal {
	return CalculateTotalSpent(l.spent)
}

// Snapshot returns a copy of the spent mapping.
func (l *Ledger) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.spent))
	for id, v := range l.spent {
		out[id] = v
	}
	return out
}

// MethodIDs returns the method ids in their configured order.
func (l *Ledger) MethodIDs() []string {
	return append([]string(nil), l.methodIDs...)
}

// CalculateTotalSpent sums a spent mapping.
func CalculateTotalSpent(spent map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range spent {
		total = total.Add(v)
	}
	return total
}
