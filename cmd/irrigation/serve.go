package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/irrigation-scheduler/internal/adapter/http"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
	"github.com/couchcryptid/irrigation-scheduler/internal/trigger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily trigger and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, clock, logger, metrics)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.close()

	daily := trigger.NewDaily(a.orchestrator, cfg.CycleTime, cfg.Timezone, clock, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, a.orchestrator, a.store, a.sink, clock, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start daily trigger.
	triggerDone := make(chan struct{})
	go func() {
		defer close(triggerDone)
		if err := daily.Run(ctx); err != nil {
			logger.Error("daily trigger error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-triggerDone:
	case <-shutdownCtx.Done():
		logger.Warn("daily trigger did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}
