package cli

import (
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/internal/loader"
	"github.com/iwvelando/payment-allocator/pkg/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate ORDERS PAYMENT_METHODS",
		Short: "Check input files without solving",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			defer a.sync()
			if err := a.validateConfiguration(); err != nil {
				return err
			}

			orders, err := loader.LoadOrders(args[0])
			if err != nil {
				return err
			}
			methods, err := loader.LoadPaymentMethods(args[1])
			if err != nil {
				return err
			}
			if _, err := allocator.NewBatch(orders, methods,
				a.conf.Solver.PointsMethodID, a.conf.Solver.PartialPointsPercent); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "valid: %d orders, %d payment methods\n", len(orders), len(methods))
			for _, warning := range validation.InputWarnings(orders, methods, a.conf.Solver.PointsMethodID) {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			return nil
		},
	}
}
