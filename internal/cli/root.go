// Package cli wires the payment-allocator commands.
package cli

import (
	"fmt"

	"github.com/iwvelando/payment-allocator/internal/config"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every command shares once flags are parsed.
type app struct {
	version    string
	configPath string
	logLevel   string
	conf       *config.Configuration
	logger     *zap.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "payment-allocator",
		Short: "Pay a batch of orders at the lowest total spend",
		Long: `payment-allocator assigns payment methods to orders so that every order is
paid in full, no method exceeds its limit, and the combined spend after
promotional discounts is as low as the built-in strategies can find.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newSolveCommand(a))
	root.AddCommand(newValidateCommand(a))
	root.AddCommand(newServeCommand(a))
	return root
}

// load reads the configuration and builds the logger.
func (a *app) load() error {
	conf, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}
	logger, err := config.NewLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.conf = conf
	a.logger = logger
	return nil
}

func (a *app) validateConfiguration() error {
	warnings, err := a.conf.ValidateConfiguration()
	for _, warning := range warnings {
		a.logger.Warn("Configuration warning: "+warning,
			zap.String("op", "cli.validateConfiguration"),
		)
	}
	return err
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
