package allocator

import (
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/discount"
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/internal/ledger"
	"github.com/iwvelando/payment-allocator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScenarioResult is the finished allocation of one strategy.
type ScenarioResult struct {
	Strategy    string
	Spent       map[string]decimal.Decimal
	Total       decimal.Decimal
	Allocations []domain.Allocation
}

// run is the mutable state of one strategy evaluation. It owns a private
// ledger and is discarded once the ScenarioResult is built.
type run struct {
	strategy    string
	batch       *Batch
	ledger      *ledger.Ledger
	logger      *zap.Logger
	allocations map[string]domain.Allocation
}

func newRun(strategy string, b *Batch, logger *zap.Logger) *run {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &run{
		strategy:    strategy,
		batch:       b,
		ledger:      ledger.New(b.methods),
		logger:      logger.With(zap.String("strategy", strategy)),
		allocations: make(map[string]domain.Allocation, len(b.orders)),
	}
}

func (r *run) paid(orderID string) bool {
	_, ok := r.allocations[orderID]
	return ok
}

func (r *run) unpaid(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !r.paid(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// settle books every payment of an allocation. Availability is checked for
// all payments before any is applied, so a failure leaves the ledger as it was.
func (r *run) settle(order domain.Order, a allocationPlan) error {
	for _, p := range a.payments {
		if !r.ledger.Covers(p.MethodID, p.Amount) {
			return fmt.Errorf("strategy %s, order %s: %w for %s: need %s, have %s", r.strategy, order.ID,
				domain.ErrLimitExceeded, p.MethodID, p.Amount.StringFixed(2), r.ledger.Remaining(p.MethodID).StringFixed(2))
		}
	}
	for _, p := range a.payments {
		if err := r.ledger.ApplyPayment(p.MethodID, p.Amount); err != nil {
			return fmt.Errorf("strategy %s, order %s: %w", r.strategy, order.ID, err)
		}
	}
	r.allocations[order.ID] = domain.Allocation{
		OrderID:  order.ID,
		Rule:     a.rule,
		Payments: a.payments,
	}

	fields := []zap.Field{
		zap.String("op", "allocator.settle"),
		zap.String("order", order.ID),
		zap.String("rule", string(a.rule)),
	}
	for _, p := range a.payments {
		fields = append(fields, zap.String(p.MethodID, p.Amount.StringFixed(2)))
	}
	r.logger.Debug("order paid", fields...)
	return nil
}

func (r *run) result() *ScenarioResult {
	allocations := make([]domain.Allocation, 0, len(r.allocations))
	for _, o := range r.batch.orders {
		if a, ok := r.allocations[o.ID]; ok {
			allocations = append(allocations, a)
		}
	}
	spent := r.ledger.Snapshot()
	for id, v := range spent {
		spent[id] = mathutil.Round(v)
	}
	return &ScenarioResult{
		Strategy:    r.strategy,
		Spent:       spent,
		Total:       mathutil.Round(r.ledger.TotalSpent()),
		Allocations: allocations,
	}
}

// allocationPlan is a candidate composition that has not been booked yet.
type allocationPlan struct {
	rule     domain.Rule
	payments []domain.Payment
}

func (a allocationPlan) cost() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.payments {
		total = total.Add(p.Amount)
	}
	return total
}

// fullPoints pays the whole order from the points wallet at its discount.
func (r *run) fullPoints(o domain.Order) (allocationPlan, bool) {
	points, ok := r.batch.points()
	if !ok {
		return allocationPlan{}, false
	}
	price := discount.MustApply(o.Value, points.Discount)
	if !r.ledger.Covers(points.ID, price) {
		return allocationPlan{}, false
	}
	return allocationPlan{
		rule:     domain.RuleFullPoints,
		payments: []domain.Payment{{MethodID: points.ID, Amount: price}},
	}, true
}

// fullCard pays the whole order with card at the card's promotion discount.
func (r *run) fullCard(o domain.Order, card domain.PaymentMethod) (allocationPlan, bool) {
	if !o.Eligible(card.ID) || card.ID == r.batch.pointsID {
		return allocationPlan{}, false
	}
	price := discount.MustApply(o.Value, card.Discount)
	if !r.ledger.Covers(card.ID, price) {
		return allocationPlan{}, false
	}
	return allocationPlan{
		rule:     domain.RuleFullCard,
		payments: []domain.Payment{{MethodID: card.ID, Amount: price}},
	}, true
}

// bestCard picks the promotion-eligible card with the highest discount that
// can still absorb the discounted order. Equal discounts keep configured order.
func (r *run) bestCard(o domain.Order) (allocationPlan, bool) {
	var (
		best     allocationPlan
		bestPct  = -1
		resolved bool
	)
	for _, card := range r.batch.cards() {
		if card.Discount <= bestPct {
			continue
		}
		if plan, ok := r.fullCard(o, card); ok {
			best, bestPct, resolved = plan, card.Discount, true
		}
	}
	return best, resolved
}

// partialPoints pays at least the partial share of the gross value with
// points and the rest of the flat-discounted total with one card. Card
// promotions do not stack with this rule, so any card with room qualifies.
// Points are topped up above the minimum share when that lets a card absorb
// the rest. The card needing the fewest points wins, then the lowest discount,
// so promotion capacity stays free.
func (r *run) partialPoints(o domain.Order) (allocationPlan, bool) {
	points, ok := r.batch.points()
	if !ok {
		return allocationPlan{}, false
	}
	minShare := mathutil.CeilPercentage(o.Value, r.batch.partialPercent)
	available := r.ledger.Remaining(points.ID)
	if !minShare.IsPositive() || available.LessThan(minShare) {
		return allocationPlan{}, false
	}
	due := discount.MustApply(o.Value, r.batch.partialPercent)

	var (
		chosen     domain.PaymentMethod
		chosenNeed decimal.Decimal
		found      bool
	)
	for _, card := range r.batch.cards() {
		need := mathutil.Max(minShare, due.Sub(r.ledger.Remaining(card.ID)))
		if need.GreaterThan(available) || !due.Sub(need).IsPositive() {
			continue
		}
		if !found || need.LessThan(chosenNeed) ||
			(need.Equal(chosenNeed) && card.Discount < chosen.Discount) {
			chosen, chosenNeed, found = card, need, true
		}
	}
	if !found {
		return allocationPlan{}, false
	}

	return allocationPlan{
		rule: domain.RulePartialPoints,
		payments: []domain.Payment{
			{MethodID: points.ID, Amount: chosenNeed},
			{MethodID: chosen.ID, Amount: due.Sub(chosenNeed)},
		},
	}, true
}
