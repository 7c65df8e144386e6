package allocator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func genBatch(t *rapid.T) ([]domain.Order, []domain.PaymentMethod) {
	cardCount := rapid.IntRange(1, 4).Draw(t, "cards")
	var methods []domain.PaymentMethod
	var ids []string
	for i := 0; i < cardCount; i++ {
		id := fmt.Sprintf("CARD%d", i)
		ids = append(ids, id)
		methods = append(methods, domain.PaymentMethod{
			ID:       id,
			Discount: rapid.IntRange(0, 100).Draw(t, id+"-discount"),
			Limit:    mathutil.FromCents(rapid.Int64Range(0, 40000).Draw(t, id+"-limit")),
		})
	}
	if rapid.Bool().Draw(t, "with-points") {
		ids = append(ids, points)
		methods = append(methods, domain.PaymentMethod{
			ID:       points,
			Discount: rapid.IntRange(0, 100).Draw(t, "points-discount"),
			Limit:    mathutil.FromCents(rapid.Int64Range(0, 40000).Draw(t, "points-limit")),
		})
	}

	orderCount := rapid.IntRange(0, 6).Draw(t, "orders")
	orders := make([]domain.Order, 0, orderCount)
	for i := 0; i < orderCount; i++ {
		id := fmt.Sprintf("ORDER%d", i)
		var promos []string
		for _, mid := range ids {
			if rapid.Bool().Draw(t, id+"-"+mid) {
				promos = append(promos, mid)
			}
		}
		orders = append(orders, domain.Order{
			ID:         id,
			Value:      mathutil.FromCents(rapid.Int64Range(1, 30000).Draw(t, id+"-value")),
			Promotions: promos,
		})
	}
	return orders, methods
}

func checkScenario(t *rapid.T, res *ScenarioResult, orders []domain.Order, methods []domain.PaymentMethod) {
	if len(res.Allocations) != len(orders) {
		t.Fatalf("%s: %d allocations for %d orders", res.Strategy, len(res.Allocations), len(orders))
	}
	booked := make(map[string]decimal.Decimal)
	for i, a := range res.Allocations {
		if a.OrderID != orders[i].ID {
			t.Fatalf("%s: allocation %d is for %s, want %s", res.Strategy, i, a.OrderID, orders[i].ID)
		}
		if a.Total().GreaterThan(orders[i].Value) {
			t.Fatalf("%s: order %s pays %s above its value %s", res.Strategy, a.OrderID, a.Total(), orders[i].Value)
		}
		for _, p := range a.Payments {
			if p.Amount.IsNegative() {
				t.Fatalf("%s: negative payment %s on %s", res.Strategy, p.Amount, p.MethodID)
			}
			booked[p.MethodID] = booked[p.MethodID].Add(p.Amount)
		}
	}

	total := decimal.Zero
	for _, m := range methods {
		spent := res.Spent[m.ID]
		if spent.GreaterThan(m.Limit) {
			t.Fatalf("%s: %s spent %s over limit %s", res.Strategy, m.ID, spent, m.Limit)
		}
		if !spent.Equal(booked[m.ID]) {
			t.Fatalf("%s: %s spent %s but allocations book %s", res.Strategy, m.ID, spent, booked[m.ID])
		}
		total = total.Add(spent)
	}
	if !total.Equal(res.Total) {
		t.Fatalf("%s: total %s does not match spent sum %s", res.Strategy, res.Total, total)
	}
}

func TestSolveInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders, methods := genBatch(t)
		solver, err := NewSolver(nil, orders, methods, Options{})
		if err != nil {
			t.Fatalf("valid batch rejected: %v", err)
		}

		solution, err := solver.Solve()
		if err != nil {
			if !errors.Is(err, domain.ErrUnresolvedOrder) {
				t.Fatalf("unexpected solve error: %v", err)
			}
			return
		}

		for _, o := range solution.Outcomes {
			if o.Err != nil {
				if !errors.Is(o.Err, domain.ErrUnresolvedOrder) {
					t.Fatalf("%s: unexpected error %v", o.Strategy, o.Err)
				}
				continue
			}
			checkScenario(t, o.Result, orders, methods)
			if solution.Winner.Total.GreaterThan(o.Result.Total) {
				t.Fatalf("winner %s total %s above %s total %s",
					solution.Winner.Strategy, solution.Winner.Total, o.Strategy, o.Result.Total)
			}
		}
	})
}

func TestSolveDoesNotMutateInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders, methods := genBatch(t)
		limits := make([]decimal.Decimal, len(methods))
		for i, m := range methods {
			limits[i] = m.Limit
		}

		solver, err := NewSolver(nil, orders, methods, Options{Parallel: true})
		if err != nil {
			t.Fatalf("valid batch rejected: %v", err)
		}
		_, _ = solver.Solve()

		for i, m := range methods {
			if !m.Limit.Equal(limits[i]) {
				t.Fatalf("limit of %s changed from %s to %s", m.ID, limits[i], m.Limit)
			}
		}
	})
}

func TestCoverableGross(t *testing.T) {
	tests := []struct {
		available string
		pct       int
		owed      string
		expected  string
	}{
		{"40.00", 20, "100.00", "50.00"},
		{"10.00", 5, "100.00", "10.53"},
		{"70.00", 0, "50.00", "70.00"},
		{"1.00", 100, "80.00", "80.00"},
		{"0.01", 99, "10.00", "1.00"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s at %d%%", tt.available, tt.pct), func(t *testing.T) {
			got := coverableGross(decimal.RequireFromString(tt.available), tt.pct, decimal.RequireFromString(tt.owed))
			if got.StringFixed(2) != tt.expected {
				t.Errorf("coverableGross = %s, want %s", got.StringFixed(2), tt.expected)
			}
		})
	}
}
