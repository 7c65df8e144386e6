package cli

import (
	"context"
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/internal/history"
	"github.com/iwvelando/payment-allocator/internal/loader"
	"github.com/iwvelando/payment-allocator/pkg/output"
	"github.com/iwvelando/payment-allocator/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type solveFlags struct {
	outputFormat string
	parallel     bool
	strategies   []string
	historyPath  string
}

func newSolveCommand(a *app) *cobra.Command {
	var flags solveFlags
	cmd := &cobra.Command{
		Use:   "solve ORDERS PAYMENT_METHODS",
		Short: "Allocate payment methods to orders",
		Long: `Read orders and payment methods (JSON, or YAML by .yaml/.yml extension),
evaluate every strategy and print what each method spends in the cheapest one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			defer a.sync()

			if cmd.Flags().Changed("output-format") {
				a.conf.Output.Format = flags.outputFormat
			}
			if cmd.Flags().Changed("parallel") {
				a.conf.Solver.Parallel = flags.parallel
			}
			if cmd.Flags().Changed("strategies") {
				a.conf.Solver.Strategies = flags.strategies
			}
			if cmd.Flags().Changed("history-db") {
				a.conf.History.Path = flags.historyPath
			}
			if err := a.validateConfiguration(); err != nil {
				return err
			}
			return a.solve(cmd.Context(), cmd, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.outputFormat, "output-format", "", "output format override: plain, pretty, csv, json")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "evaluate strategies concurrently")
	cmd.Flags().StringSliceVar(&flags.strategies, "strategies", nil, "strategies to evaluate, in tie-break order")
	cmd.Flags().StringVar(&flags.historyPath, "history-db", "", "record the run in this SQLite database")
	return cmd
}

func (a *app) solve(ctx context.Context, cmd *cobra.Command, ordersPath, methodsPath string) error {
	orders, err := loader.LoadOrders(ordersPath)
	if err != nil {
		return err
	}
	methods, err := loader.LoadPaymentMethods(methodsPath)
	if err != nil {
		return err
	}

	warnings := validation.InputWarnings(orders, methods, a.conf.Solver.PointsMethodID)
	for _, warning := range warnings {
		a.logger.Warn("Input warning: "+warning, zap.String("op", "cli.solve"))
	}

	solver, err := allocator.NewSolver(a.logger, orders, methods, a.conf.SolverOptions(nil))
	if err != nil {
		return err
	}
	solution, err := solver.Solve()
	if err != nil {
		a.logger.Error("failed to solve",
			zap.String("op", "cli.solve"),
			zap.Error(err),
		)
		return err
	}

	if a.conf.History.Path != "" {
		if err := a.record(ctx, solution, len(orders)); err != nil {
			return err
		}
	}

	return output.Write(cmd.OutOrStdout(), a.conf.Output.Format, solution, warnings)
}

func (a *app) record(ctx context.Context, solution *allocator.Solution, orderCount int) error {
	store, err := history.Open(a.conf.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.NewRun(solution, orderCount)
	if err := store.Save(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	a.logger.Info("run recorded",
		zap.String("op", "cli.record"),
		zap.String("run", run.ID),
	)
	return nil
}
