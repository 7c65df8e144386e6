package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/payment-allocator/internal/config"
	"github.com/iwvelando/payment-allocator/internal/history"
	"github.com/iwvelando/payment-allocator/internal/server"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var serverConfigPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			if err := a.validateConfiguration(); err != nil {
				return err
			}

			serverConfig, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if serverConfig.Logging != (config.LoggingConfig{}) {
				logger, err := config.NewLogger(serverConfig.Logging, a.logLevel)
				if err != nil {
					return err
				}
				a.logger = logger
			}
			defer a.sync()

			opts := server.Options{
				MaxUploadSize: serverConfig.UploadSizeBytes(),
				Version:       a.version,
				Solver:        a.conf.Solver,
			}
			if serverConfig.HistoryPath != "" {
				store, err := history.Open(serverConfig.HistoryPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.History = store
			}
			if serverConfig.MetricsEnabled() {
				registry := prometheus.NewRegistry()
				registry.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				opts.Registry = registry
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting server",
				zap.String("op", "cli.serve"),
				zap.String("address", serverConfig.Address),
				zap.Bool("history", opts.History != nil),
				zap.Bool("metrics", opts.Registry != nil),
			)
			return server.Serve(ctx, a.logger, serverConfig.Address, server.NewHandler(a.logger, opts))
		},
	}
	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	return cmd
}
