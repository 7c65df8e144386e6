package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidArgument marks malformed input to an arithmetic, ledger or
	// solver call: absent amount, out-of-range percent, unknown method id,
	// negative amount.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLimitExceeded marks a ledger update that would drive a remaining
	// limit below zero. Callers pre-check availability, so seeing this is a
	// bug in the caller.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrUnresolvedOrder marks an order that no combination of remaining
	// capacities could pay.
	ErrUnresolvedOrder = errors.New("unresolved order")
)

// UnresolvedOrderError reports the order a strategy could not pay and the
// gross value left over after every method's capacity was exhausted.
type UnresolvedOrderError struct {
	Strategy  string
	OrderID   string
	Remainder decimal.Decimal
}

func (e *UnresolvedOrderError) Error() string {
	if e.Strategy == "" {
		return fmt.Sprintf("order %s cannot be paid: %s left unpaid", e.OrderID, e.Remainder.StringFixed(2))
	}
	return fmt.Sprintf("strategy %s: order %s cannot be paid: %s left unpaid",
		e.Strategy, e.OrderID, e.Remainder.StringFixed(2))
}

// Is lets errors.Is match the ErrUnresolvedOrder sentinel.
func (e *UnresolvedOrderError) Is(target error) bool {
	return target == ErrUnresolvedOrder
}

// InvalidArgument wraps ErrInvalidArgument with a formatted detail.
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
