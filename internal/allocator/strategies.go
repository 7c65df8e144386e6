package allocator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/internal/subset"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"go.uber.org/zap"
)

// Strategy allocates every order of a batch against a fresh ledger. It must
// not retain or mutate anything reachable from the batch.
type Strategy func(b *Batch, logger *zap.Logger) (*ScenarioResult, error)

var strategies = map[string]Strategy{
	constants.StrategyCardFirst:   CardFirst,
	constants.StrategyPointsFirst: PointsFirst,
	constants.StrategyMixed:       Mixed,
}

// StrategyNames returns the built-in strategies in evaluation order.
func StrategyNames() []string {
	return []string{
		constants.StrategyCardFirst,
		constants.StrategyPointsFirst,
		constants.StrategyMixed,
	}
}

// LookupStrategy returns the strategy registered under name.
func LookupStrategy(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		known := make([]string, 0, len(strategies))
		for k := range strategies {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, domain.InvalidArgument("unknown strategy %q, expected one of %s", name, strings.Join(known, ", "))
	}
	return s, nil
}

// CardFirst lets each card, highest discount first, fully cover the subset of
// its promotion-eligible orders that best fills its remaining limit. Orders the
// points wallet can cover on its own go next; the rest fall back.
func CardFirst(b *Batch, logger *zap.Logger) (*ScenarioResult, error) {
	r := newRun(constants.StrategyCardFirst, b, logger)

	for _, card := range b.cardsByDiscount() {
		var candidates []domain.Order
		for _, o := range r.unpaid(b.orders) {
			if o.Eligible(card.ID) {
				candidates = append(candidates, o)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		chosen, err := subset.Select(candidates, r.ledger.Remaining(card.ID))
		if err != nil {
			return nil, fmt.Errorf("strategy %s, card %s: %w", r.strategy, card.ID, err)
		}
		for _, o := range chosen {
			plan, ok := r.fullCard(o, card)
			if !ok {
				return nil, fmt.Errorf("strategy %s, card %s: %w: selected order %s does not fit",
					r.strategy, card.ID, domain.ErrLimitExceeded, o.ID)
			}
			if err := r.settle(o, plan); err != nil {
				return nil, err
			}
		}
	}

	for _, o := range r.unpaid(b.orders) {
		if plan, ok := r.fullPoints(o); ok {
			if err := r.settle(o, plan); err != nil {
				return nil, err
			}
		}
	}

	return r.finish(b.orders)
}

// PointsFirst walks the orders from the largest down, paying each fully with
// points when the wallet allows and otherwise with the best eligible card.
func PointsFirst(b *Batch, logger *zap.Logger) (*ScenarioResult, error) {
	r := newRun(constants.StrategyPointsFirst, b, logger)
	orders := b.ordersByValue()

	for _, o := range orders {
		plan, ok := r.fullPoints(o)
		if !ok {
			plan, ok = r.bestCard(o)
		}
		if !ok {
			continue
		}
		if err := r.settle(o, plan); err != nil {
			return nil, err
		}
	}

	return r.finish(orders)
}

// Mixed spreads points thinly: every order that can take the partial-points
// split gets it first, so the flat discount triggers as often as possible.
// Leftovers are paid fully with the cheaper of points or the best eligible
// card before falling back.
func Mixed(b *Batch, logger *zap.Logger) (*ScenarioResult, error) {
	r := newRun(constants.StrategyMixed, b, logger)

	for _, o := range b.orders {
		if plan, ok := r.partialPoints(o); ok {
			if err := r.settle(o, plan); err != nil {
				return nil, err
			}
		}
	}

	for _, o := range r.unpaid(b.orders) {
		pointsPlan, pointsOK := r.fullPoints(o)
		cardPlan, cardOK := r.bestCard(o)
		switch {
		case pointsOK && (!cardOK || pointsPlan.cost().LessThan(cardPlan.cost())):
			if err := r.settle(o, pointsPlan); err != nil {
				return nil, err
			}
		case cardOK:
			if err := r.settle(o, cardPlan); err != nil {
				return nil, err
			}
		}
	}

	return r.finish(b.orders)
}

// finish sends every still-unpaid order, in the given order, to the fallback
// allocator and builds the result.
func (r *run) finish(orders []domain.Order) (*ScenarioResult, error) {
	for _, o := range r.unpaid(orders) {
		if err := r.fallback(o); err != nil {
			return nil, err
		}
	}
	res := r.result()
	r.logger.Info("scenario evaluated",
		zap.String("op", "allocator.finish"),
		zap.Int("orders", len(res.Allocations)),
		zap.String("total", res.Total.StringFixed(2)),
	)
	return res, nil
}
