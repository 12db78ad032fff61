package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "irrigation",
		Short:         "FAO-56 irrigation scheduling service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRunCmd(), newMigrateCmd(), newExportCmd())
	return root
}

// setup loads configuration and builds the process logger. Errors are logged
// before they are returned so the exit status is never silent.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg), nil
}
