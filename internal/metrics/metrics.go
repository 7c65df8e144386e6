// Package metrics exposes solver activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "payalloc"

// Outcome label values of ScenarioRuns.
const (
	OutcomeOK         = "ok"
	OutcomeUnresolved = "unresolved"
	OutcomeError      = "error"
)

// Collector records strategy and solve results. It satisfies allocator.Observer.
type Collector struct {
	ScenarioRuns  *prometheus.CounterVec
	ScenarioWins  *prometheus.CounterVec
	SolveDuration prometheus.Histogram
	SolveSpend    prometheus.Histogram
	SolveFailures prometheus.Counter
}

// NewCollector registers the solver metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ScenarioRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "runs_total",
				Help:      "Total number of strategy evaluations by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		ScenarioWins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "wins_total",
				Help:      "Total number of solves won by each strategy",
			},
			[]string{"strategy"},
		),
		SolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "solve",
				Name:      "duration_seconds",
				Help:      "Solve duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		SolveSpend: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "solve",
				Name:      "total_spend",
				Help:      "Total spend of the winning scenario",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		SolveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "solve",
				Name:      "failures_total",
				Help:      "Total number of solves that produced no result",
			},
		),
	}
}

// ScenarioEvaluated counts one strategy evaluation.
func (c *Collector) ScenarioEvaluated(strategy string, _ decimal.Decimal, err error, _ time.Duration) {
	c.ScenarioRuns.WithLabelValues(strategy, outcome(err)).Inc()
}

// SolveCompleted records the winner, or a failure when err is set.
func (c *Collector) SolveCompleted(winner string, total decimal.Decimal, err error, elapsed time.Duration) {
	c.SolveDuration.Observe(elapsed.Seconds())
	if err != nil {
		c.SolveFailures.Inc()
		return
	}
	c.ScenarioWins.WithLabelValues(winner).Inc()
	c.SolveSpend.Observe(total.InexactFloat64())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrUnresolvedOrder):
		return OutcomeUnresolved
	default:
		return OutcomeError
	}
}
