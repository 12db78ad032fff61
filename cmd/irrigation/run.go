package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one irrigation cycle now and print the per-plant summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, clockwork.NewRealClock(), logger, observability.NewMetrics())
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			defer a.close()

			res, runErr := a.orchestrator.Run(ctx)
			if res.CycleID != "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}
