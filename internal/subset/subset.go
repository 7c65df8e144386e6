// Package subset solves the 0/1 knapsack used to decide which orders a payment
// method should fully cover within its limit.
//
// Amounts are scaled to whole cents before solving, so the decision table is
// indexed by exact integers and no floating-point drift can enter. Cost is
// O(orders x capacity-in-cents); capacity is clamped to the sum of candidate
// values, which never changes the answer.
package subset

import (
	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Select returns the subset of orders with the largest total value not
// exceeding capacity. Candidates are considered in the given order, so ties
// resolve the same way on every run. The result keeps the candidates' order.
func Select(orders []domain.Order, capacity decimal.Decimal) ([]domain.Order, error) {
	values := make([]int64, len(orders))
	for i, o := range orders {
		cents, ok := mathutil.ToCents(o.Value)
		if !ok {
			return nil, domain.InvalidArgument("order %s value %s is not a whole number of cents", o.ID, o.Value.String())
		}
		if cents <= 0 {
			return nil, domain.InvalidArgument("order %s value must be positive, got %s", o.ID, o.Value.String())
		}
		values[i] = cents
	}

	picked := SelectCents(values, mathutil.FloorCents(capacity))
	out := make([]domain.Order, 0, len(picked))
	for _, idx := range picked {
		out = append(out, orders[idx])
	}
	return out, nil
}

// SelectCents is Select over raw cent values. It returns the indexes of the
// chosen values in ascending order.
func SelectCents(values []int64, capacity int64) []int {
	if capacity <= 0 || len(values) == 0 {
		return nil
	}
	var total int64
	for _, v := range values {
		total += v
	}
	if capacity > total {
		capacity = total
	}

	n := len(values)
	reachable := make([][]bool, n+1)
	for i := range reachable {
		reachable[i] = make([]bool, capacity+1)
	}
	reachable[0][0] = true
	for i := 1; i <= n; i++ {
		val := values[i-1]
		prev, cur := reachable[i-1], reachable[i]
		for j := int64(0); j <= capacity; j++ {
			cur[j] = prev[j] || (j >= val && prev[j-val])
		}
	}

	best := int64(0)
	for j := capacity; j >= 0; j-- {
		if reachable[n][j] {
			best = j
			break
		}
	}

	var picked []int
	w := best
	for i := n; i > 0 && w > 0; i-- {
		val := values[i-1]
		if w >= val && reachable[i-1][w-val] {
			picked = append(picked, i-1)
			w -= val
		}
	}
	for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
		picked[l], picked[r] = picked[r], picked[l]
	}
	return picked
}
