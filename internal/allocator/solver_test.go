package allocator

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const points = constants.DefaultPointsMethodID

func assertSpent(t *testing.T, spent map[string]decimal.Decimal, expected map[string]string) {
	t.Helper()
	require.Len(t, spent, len(expected))
	for id, want := range expected {
		got, ok := spent[id]
		require.True(t, ok, "method %s missing from spent mapping", id)
		assert.Equal(t, want, got.StringFixed(2), "spent[%s]", id)
	}
}

func scenarioMethods(pointsDiscount int, pointsLimit string) []domain.PaymentMethod {
	return []domain.PaymentMethod{
		testutil.Method("CARD20", 20, "100.00"),
		testutil.Method("CARD10", 10, "100.00"),
		testutil.Method(points, pointsDiscount, pointsLimit),
	}
}

func TestSolveScenarios(t *testing.T) {
	tests := []struct {
		name     string
		methods  []domain.PaymentMethod
		expected map[string]string
	}{
		{
			name:     "card when points are worse",
			methods:  scenarioMethods(5, "100.00"),
			expected: map[string]string{"CARD20": "80.00", "CARD10": "0.00", points: "0.00"},
		},
		{
			name:     "full points when points are best",
			methods:  scenarioMethods(50, "100.00"),
			expected: map[string]string{"CARD20": "0.00", "CARD10": "0.00", points: "50.00"},
		},
		{
			name:     "full card when points limit is too low",
			methods:  scenarioMethods(50, "5.00"),
			expected: map[string]string{"CARD20": "80.00", "CARD10": "0.00", points: "0.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := []domain.Order{testutil.Order("O1", "100.00", "CARD20", points)}
			solver, err := NewSolver(zap.NewNop(), orders, tt.methods, Options{})
			require.NoError(t, err)

			solution, err := solver.Solve()
			require.NoError(t, err)
			assertSpent(t, solution.Spent(), tt.expected)
			assert.Equal(t, []string{"CARD20", "CARD10", points}, solution.MethodIDs)
		})
	}
}

func classicBatch() ([]domain.Order, []domain.PaymentMethod) {
	orders := []domain.Order{
		testutil.Order("ORDER1", "100.00", "mZysk"),
		testutil.Order("ORDER2", "200.00", "BosBankrut"),
		testutil.Order("ORDER3", "150.00", "mZysk", "BosBankrut"),
		testutil.Order("ORDER4", "50.00"),
	}
	methods := []domain.PaymentMethod{
		testutil.Method(points, 15, "100.00"),
		testutil.Method("mZysk", 10, "180.00"),
		testutil.Method("BosBankrut", 5, "200.00"),
	}
	return orders, methods
}

func TestSolveClassicBatch(t *testing.T) {
	orders, methods := classicBatch()
	solver, err := NewSolver(zap.NewNop(), orders, methods, Options{})
	require.NoError(t, err)

	solution, err := solver.Solve()
	require.NoError(t, err)

	assert.Equal(t, constants.StrategyMixed, solution.Winner.Strategy)
	assertSpent(t, solution.Spent(), map[string]string{
		points:       "70.00",
		"mZysk":      "180.00",
		"BosBankrut": "200.00",
	})
	assert.Equal(t, "450.00", solution.Winner.Total.StringFixed(2))

	require.Len(t, solution.Outcomes, 3)
	totals := map[string]string{}
	for _, o := range solution.Outcomes {
		require.NoError(t, o.Err)
		totals[o.Strategy] = o.Result.Total.StringFixed(2)
	}
	assert.Equal(t, map[string]string{
		constants.StrategyCardFirst:   "455.00",
		constants.StrategyPointsFirst: "455.00",
		constants.StrategyMixed:       "450.00",
	}, totals)
}

func TestCardFirstClassicBatch(t *testing.T) {
	orders, methods := classicBatch()
	b, err := NewBatch(orders, methods, points, constants.DefaultPartialPointsPercent)
	require.NoError(t, err)

	res, err := CardFirst(b, zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		orderID  string
		rule     domain.Rule
		payments map[string]string
	}{
		{"ORDER1", domain.RuleFullPoints, map[string]string{points: "85.00"}},
		{"ORDER2", domain.RuleFullCard, map[string]string{"BosBankrut": "190.00"}},
		{"ORDER3", domain.RuleFullCard, map[string]string{"mZysk": "135.00"}},
		{"ORDER4", domain.RulePartialPoints, map[string]string{points: "5.00", "mZysk": "40.00"}},
	}
	for _, tt := range tests {
		a := testutil.FindAllocation(res.Allocations, tt.orderID)
		require.NotNil(t, a, "allocation for %s", tt.orderID)
		assert.Equal(t, tt.rule, a.Rule, "rule for %s", tt.orderID)
		got := map[string]string{}
		for _, p := range a.Payments {
			got[p.MethodID] = p.Amount.StringFixed(2)
		}
		assert.Equal(t, tt.payments, got, "payments for %s", tt.orderID)
	}
}

func TestMixedTopsUpPoints(t *testing.T) {
	orders, methods := classicBatch()
	b, err := NewBatch(orders, methods, points, constants.DefaultPartialPointsPercent)
	require.NoError(t, err)

	res, err := Mixed(b, zap.NewNop())
	require.NoError(t, err)

	order3 := testutil.FindAllocation(res.Allocations, "ORDER3")
	require.NotNil(t, order3)
	assert.Equal(t, domain.RulePartialPoints, order3.Rule)
	assert.Equal(t, "135.00", order3.Total().StringFixed(2))
	assert.Equal(t, points, order3.Payments[0].MethodID)
	assert.Equal(t, "15.00", order3.Payments[0].Amount.StringFixed(2))

	order4 := testutil.FindAllocation(res.Allocations, "ORDER4")
	require.NotNil(t, order4)
	assert.Equal(t, "25.00", order4.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "mZysk", order4.Payments[1].MethodID)
	assert.Equal(t, "20.00", order4.Payments[1].Amount.StringFixed(2))
}

func TestPointsFirstProcessesLargestOrderFirst(t *testing.T) {
	orders := []domain.Order{
		testutil.Order("SMALL", "40.00"),
		testutil.Order("LARGE", "90.00"),
	}
	methods := []domain.PaymentMethod{
		testutil.Method(points, 20, "72.00"),
		testutil.Method("cash", 0, "100.00"),
	}
	b, err := NewBatch(orders, methods, points, constants.DefaultPartialPointsPercent)
	require.NoError(t, err)

	res, err := PointsFirst(b, zap.NewNop())
	require.NoError(t, err)

	large := testutil.FindAllocation(res.Allocations, "LARGE")
	require.NotNil(t, large)
	assert.Equal(t, domain.RuleFullPoints, large.Rule)
	assert.Equal(t, "72.00", large.Total().StringFixed(2))

	// points are exhausted, the small order splits onto cash without a promotion
	small := testutil.FindAllocation(res.Allocations, "SMALL")
	require.NotNil(t, small)
	assert.Equal(t, domain.RuleSplit, small.Rule)
	assert.Equal(t, "40.00", small.Total().StringFixed(2))

	// allocations keep source order
	assert.Equal(t, "SMALL", res.Allocations[0].OrderID)
}

func TestFallbackSplitsAcrossMethods(t *testing.T) {
	orders := []domain.Order{testutil.Order("O1", "100.00")}
	methods := []domain.PaymentMethod{
		testutil.Method("plain", 0, "70.00"),
		testutil.Method("gold", 20, "40.00"),
	}
	b, err := NewBatch(orders, methods, points, constants.DefaultPartialPointsPercent)
	require.NoError(t, err)

	res, err := CardFirst(b, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, res.Allocations, 1)
	a := res.Allocations[0]
	assert.Equal(t, domain.RuleSplit, a.Rule)
	require.Len(t, a.Payments, 2)
	assert.Equal(t, "gold", a.Payments[0].MethodID)
	assert.Equal(t, "40.00", a.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "plain", a.Payments[1].MethodID)
	assert.Equal(t, "50.00", a.Payments[1].Amount.StringFixed(2))
	assert.Equal(t, "90.00", res.Total.StringFixed(2))
}

func TestSolveUnresolvedOrder(t *testing.T) {
	orders := []domain.Order{testutil.Order("O1", "100.00")}
	methods := []domain.PaymentMethod{testutil.Method("cash", 0, "50.00")}

	solver, err := NewSolver(zap.NewNop(), orders, methods, Options{})
	require.NoError(t, err)

	solution, err := solver.Solve()
	require.Error(t, err)
	assert.Nil(t, solution)
	assert.True(t, errors.Is(err, domain.ErrUnresolvedOrder))

	var unresolved *domain.UnresolvedOrderError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "O1", unresolved.OrderID)
	assert.Equal(t, "50.00", unresolved.Remainder.StringFixed(2))
}

func withStrategy(t *testing.T, name string, s Strategy) {
	t.Helper()
	strategies[name] = s
	t.Cleanup(func() { delete(strategies, name) })
}

func TestSolveSkipsUnresolvedStrategy(t *testing.T) {
	withStrategy(t, "always-unresolved", func(b *Batch, _ *zap.Logger) (*ScenarioResult, error) {
		return nil, &domain.UnresolvedOrderError{Strategy: "always-unresolved", OrderID: "O1", Remainder: decimal.NewFromInt(1)}
	})

	orders := []domain.Order{testutil.Order("O1", "100.00", "CARD20")}
	solver, err := NewSolver(zap.NewNop(), orders, scenarioMethods(5, "100.00"), Options{
		Strategies: []string{"always-unresolved", constants.StrategyCardFirst},
	})
	require.NoError(t, err)

	solution, err := solver.Solve()
	require.NoError(t, err)
	assert.Equal(t, constants.StrategyCardFirst, solution.Winner.Strategy)
	require.Len(t, solution.Outcomes, 2)
	assert.Error(t, solution.Outcomes[0].Err)
}

func TestSolveAbortsOnContractViolation(t *testing.T) {
	withStrategy(t, "broken", func(b *Batch, _ *zap.Logger) (*ScenarioResult, error) {
		return nil, domain.ErrLimitExceeded
	})

	orders := []domain.Order{testutil.Order("O1", "100.00", "CARD20")}
	solver, err := NewSolver(zap.NewNop(), orders, scenarioMethods(5, "100.00"), Options{
		Strategies: []string{constants.StrategyCardFirst, "broken"},
	})
	require.NoError(t, err)

	_, err = solver.Solve()
	assert.True(t, errors.Is(err, domain.ErrLimitExceeded))
}

func TestSolveTieGoesToFirstStrategy(t *testing.T) {
	fixed := func(name string) Strategy {
		return func(b *Batch, _ *zap.Logger) (*ScenarioResult, error) {
			return &ScenarioResult{Strategy: name, Total: decimal.RequireFromString("80.00"), Spent: map[string]decimal.Decimal{}}, nil
		}
	}
	withStrategy(t, "first", fixed("first"))
	withStrategy(t, "second", fixed("second"))

	orders := []domain.Order{testutil.Order("O1", "100.00")}
	solver, err := NewSolver(zap.NewNop(), orders, scenarioMethods(5, "100.00"), Options{
		Strategies: []string{"first", "second"},
	})
	require.NoError(t, err)

	solution, err := solver.Solve()
	require.NoError(t, err)
	assert.Equal(t, "first", solution.Winner.Strategy)
}

func TestNewSolverRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		orders  []domain.Order
		methods []domain.PaymentMethod
		opts    Options
	}{
		{"unknown strategy", nil, nil, Options{Strategies: []string{"greedy"}}},
		{"invalid discount", nil, []domain.PaymentMethod{testutil.Method("x", 101, "1")}, Options{}},
		{"sub-cent order", []domain.Order{testutil.Order("O1", "1.001")}, nil, Options{}},
		{"partial percent out of range", nil, nil, Options{PartialPointsPercent: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSolver(nil, tt.orders, tt.methods, tt.opts)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestSolveEmptyBatch(t *testing.T) {
	solver, err := NewSolver(nil, nil, scenarioMethods(5, "100.00"), Options{})
	require.NoError(t, err)

	solution, err := solver.Solve()
	require.NoError(t, err)
	assertSpent(t, solution.Spent(), map[string]string{"CARD20": "0.00", "CARD10": "0.00", points: "0.00"})
}

func TestSolveParallelMatchesSequential(t *testing.T) {
	orders, methods := classicBatch()

	sequential, err := NewSolver(nil, orders, methods, Options{})
	require.NoError(t, err)
	parallel, err := NewSolver(nil, orders, methods, Options{Parallel: true})
	require.NoError(t, err)

	want, err := sequential.Solve()
	require.NoError(t, err)
	got, err := parallel.Solve()
	require.NoError(t, err)

	assert.Equal(t, want.Winner.Strategy, got.Winner.Strategy)
	assert.True(t, want.Winner.Total.Equal(got.Winner.Total))
	for i := range want.Outcomes {
		assert.Equal(t, want.Outcomes[i].Strategy, got.Outcomes[i].Strategy)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	scenarios []string
	winner    string
	solveErr  error
	solves    int
}

func (r *recordingObserver) ScenarioEvaluated(strategy string, _ decimal.Decimal, _ error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios = append(r.scenarios, strategy)
}

func (r *recordingObserver) SolveCompleted(winner string, _ decimal.Decimal, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winner = winner
	r.solveErr = err
	r.solves++
}

func TestSolveNotifiesObserver(t *testing.T) {
	orders, methods := classicBatch()
	obs := &recordingObserver{}
	solver, err := NewSolver(nil, orders, methods, Options{Observer: obs, Parallel: true})
	require.NoError(t, err)

	_, err = solver.Solve()
	require.NoError(t, err)

	assert.ElementsMatch(t, StrategyNames(), obs.scenarios)
	assert.Equal(t, constants.StrategyMixed, obs.winner)
	assert.NoError(t, obs.solveErr)
	assert.Equal(t, 1, obs.solves)
}

func TestBatchIsolatedFromCallerMutation(t *testing.T) {
	orders := []domain.Order{testutil.Order("O1", "100.00", "CARD20")}
	methods := scenarioMethods(5, "100.00")
	b, err := NewBatch(orders, methods, points, constants.DefaultPartialPointsPercent)
	require.NoError(t, err)

	orders[0].Promotions[0] = "CARD10"
	methods[0].Discount = 0

	assert.True(t, b.Orders()[0].Eligible("CARD20"))
	assert.Equal(t, 20, b.Methods()[0].Discount)
}
