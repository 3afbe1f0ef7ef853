package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"BillsMonitor/internal/app"
	"BillsMonitor/internal/config"
	"BillsMonitor/internal/logging"
)

// newRootCommand builds the CLI. Without a subcommand it behaves like "run".
func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "billsmonitor",
		Short:         "Watch the parliament bill register and notify about relevant bills",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config (default $BILLS_MONITOR_CONFIG)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Poll on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup(cfgFile)
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			defer closeApp(application, logger)

			if err := application.Run(cmd.Context()); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			return nil
		},
	}

	once := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup(cfgFile)
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			defer closeApp(application, logger)

			report, err := application.RunOnce(cmd.Context())
			if err != nil {
				logger.Error("cycle failed", "cycle_id", report.CycleID, "error", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "new: %d, notified: %d, seen: %d\n",
				report.New, report.Notified, report.SeenTotal)
			return nil
		},
	}

	root.RunE = run.RunE
	root.AddCommand(run, once)
	return root
}

func setup(cfgFile string) (config.Config, *slog.Logger) {
	var cfg config.Config
	if cfgFile != "" {
		cfg = config.LoadFile(cfgFile)
	} else {
		cfg = config.Load()
	}
	return cfg, logging.New(cfg.Logging.Level)
}

func closeApp(application *app.Application, logger *slog.Logger) {
	if err := application.Close(); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}
