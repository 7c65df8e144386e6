package allocator

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Observer is notified as strategies finish and when a solve completes.
// Implementations must be safe for concurrent use when parallel evaluation is on.
type Observer interface {
	ScenarioEvaluated(strategy string, total decimal.Decimal, err error, elapsed time.Duration)
	SolveCompleted(winner string, total decimal.Decimal, err error, elapsed time.Duration)
}

// Outcome is the result of evaluating one strategy in isolation.
type Outcome struct {
	Strategy string
	Result   *ScenarioResult
	Err      error
	Duration time.Duration
}

// Solution is the cheapest scenario together with every strategy's outcome.
type Solution struct {
	Winner    *ScenarioResult
	Outcomes  []Outcome
	MethodIDs []string
}

// Spent returns the winning spent amount per method id.
func (s *Solution) Spent() map[string]decimal.Decimal {
	return s.Winner.Spent
}

// Options tune a Solver. The zero value runs every built-in strategy
// sequentially with the default points wallet rules.
type Options struct {
	PointsMethodID       string
	PartialPointsPercent int
	Strategies           []string
	Parallel             bool
	Observer             Observer
}

// Solver runs the configured strategies over a frozen batch and keeps the
// cheapest result.
type Solver struct {
	logger     *zap.Logger
	batch      *Batch
	names      []string
	strategies []Strategy
	parallel   bool
	observer   Observer
}

// NewSolver validates the inputs and prepares a Solver.
func NewSolver(logger *zap.Logger, orders []domain.Order, methods []domain.PaymentMethod, opts Options) (*Solver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PartialPointsPercent == 0 {
		opts.PartialPointsPercent = constants.DefaultPartialPointsPercent
	}

	batch, err := NewBatch(orders, methods, opts.PointsMethodID, opts.PartialPointsPercent)
	if err != nil {
		return nil, err
	}

	names := opts.Strategies
	if len(names) == 0 {
		names = StrategyNames()
	}
	s := &Solver{
		logger:   logger,
		batch:    batch,
		parallel: opts.Parallel,
		observer: opts.Observer,
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		strategy, err := LookupStrategy(name)
		if err != nil {
			return nil, err
		}
		s.names = append(s.names, name)
		s.strategies = append(s.strategies, strategy)
	}
	return s, nil
}

// Batch returns the frozen input the solver works on.
func (s *Solver) Batch() *Batch {
	return s.batch
}

// Solve evaluates every strategy against its own ledger and returns the one
// with the lowest total spend. Ties go to the strategy evaluated first.
//
// A strategy that meets an unpayable order drops out; the others are
// unaffected. If every strategy drops out, all their errors are returned
// joined. Any other strategy error is a broken contract and aborts the solve.
func (s *Solver) Solve() (*Solution, error) {
	start := time.Now()
	outcomes := s.evaluate()

	solution := &Solution{Outcomes: outcomes, MethodIDs: s.batch.MethodIDs()}
	var failures []error
	for i := range outcomes {
		outcome := &outcomes[i]
		if outcome.Err != nil {
			if !errors.Is(outcome.Err, domain.ErrUnresolvedOrder) {
				s.complete("", decimal.Zero, outcome.Err, start)
				return nil, fmt.Errorf("strategy %s failed: %w", outcome.Strategy, outcome.Err)
			}
			s.logger.Warn("strategy could not pay every order",
				zap.String("op", "allocator.Solve"),
				zap.String("strategy", outcome.Strategy),
				zap.Error(outcome.Err),
			)
			failures = append(failures, outcome.Err)
			continue
		}
		if solution.Winner == nil || outcome.Result.Total.LessThan(solution.Winner.Total) {
			solution.Winner = outcome.Result
		}
	}

	if solution.Winner == nil {
		err := errors.Join(failures...)
		if err == nil {
			err = domain.InvalidArgument("no strategies to evaluate")
		}
		s.complete("", decimal.Zero, err, start)
		return nil, err
	}

	s.logger.Info("solve completed",
		zap.String("op", "allocator.Solve"),
		zap.String("winner", solution.Winner.Strategy),
		zap.String("total", solution.Winner.Total.StringFixed(2)),
		zap.Int("orders", len(s.batch.orders)),
		zap.Int("strategies", len(outcomes)),
	)
	s.complete(solution.Winner.Strategy, solution.Winner.Total, nil, start)
	return solution, nil
}

func (s *Solver) evaluate() []Outcome {
	outcomes := make([]Outcome, len(s.strategies))
	runOne := func(i int) {
		begin := time.Now()
		res, err := s.strategies[i](s.batch, s.logger)
		outcomes[i] = Outcome{Strategy: s.names[i], Result: res, Err: err, Duration: time.Since(begin)}
		if s.observer != nil {
			total := decimal.Zero
			if res != nil {
				total = res.Total
			}
			s.observer.ScenarioEvaluated(s.names[i], total, err, outcomes[i].Duration)
		}
	}

	if !s.parallel {
		for i := range s.strategies {
			runOne(i)
		}
		return outcomes
	}

	// failures travel in outcomes
	var g errgroup.Group
	for i := range s.strategies {
		i := i
		g.Go(func() error {
			runOne(i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Solver) complete(winner string, total decimal.Decimal, err error, start time.Time) {
	if s.observer != nil {
		s.observer.SolveCompleted(winner, total, err, time.Since(start))
	}
}
