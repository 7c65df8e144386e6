package allocator

import (
	"github.com/iwvelando/payment-allocator/internal/discount"
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fallback places an order no primary pass could: partial points with one
// card, then full points, then the best eligible card, and finally a split of
// the gross value across every method with remaining limit.
func (r *run) fallback(o domain.Order) error {
	for _, try := range []func(domain.Order) (allocationPlan, bool){
		r.partialPoints,
		r.fullPoints,
		r.bestCard,
	} {
		if plan, ok := try(o); ok {
			return r.settle(o, plan)
		}
	}

	plan, remainder := r.split(o)
	if remainder.IsPositive() {
		r.logger.Warn("order cannot be paid",
			zap.String("op", "allocator.fallback"),
			zap.String("order", o.ID),
			zap.String("remainder", remainder.StringFixed(2)),
		)
		return &domain.UnresolvedOrderError{
			Strategy:  r.strategy,
			OrderID:   o.ID,
			Remainder: remainder,
		}
	}
	return r.settle(o, plan)
}

// split walks the methods in discount-descending order and lets each one cover
// as much of the order's remaining gross value as its limit allows, paying its
// own discount on that slice. It returns the gross value nobody could cover.
func (r *run) split(o domain.Order) (allocationPlan, decimal.Decimal) {
	remainder := o.Value
	plan := allocationPlan{rule: domain.RuleSplit}
	for _, m := range r.batch.methodsByDiscount() {
		if !remainder.IsPositive() {
			break
		}
		available := r.ledger.Remaining(m.ID)
		if !available.IsPositive() {
			continue
		}
		slice := mathutil.Min(coverableGross(available, m.Discount, remainder), remainder)
		if !slice.IsPositive() {
			continue
		}
		plan.payments = append(plan.payments, domain.Payment{
			MethodID: m.ID,
			Amount:   discount.MustApply(slice, m.Discount),
		})
		remainder = remainder.Sub(slice)
	}
	return plan, remainder
}

// coverableGross returns the largest gross amount whose discounted price fits
// in available. A 100% discount has no inverse and covers everything owed.
func coverableGross(available decimal.Decimal, pct int, owed decimal.Decimal) decimal.Decimal {
	if pct == constants.MaxDiscountPercent {
		return owed
	}
	gross, err := discount.Reverse(&available, pct)
	if err != nil {
		return decimal.Zero
	}
	for gross.IsPositive() && discount.MustApply(gross, pct).GreaterThan(available) {
		gross = gross.Sub(mathutil.OneCent())
	}
	return gross
}
