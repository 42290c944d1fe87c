package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/ride-height-service/internal/adapter/http"
	"github.com/couchcryptid/ride-height-service/internal/app"
	"github.com/couchcryptid/ride-height-service/internal/config"
	"github.com/couchcryptid/ride-height-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	svc, err := app.Build(cfg, clockwork.NewRealClock(), logger, metrics)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}
	if err := svc.LoadView(); err != nil {
		logger.Warn("stored snapshot unreadable, waiting for next scrape", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc.View, svc.View, svc.Pipeline, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the refresh pipeline and pick up snapshots written by heightctl in
	// another process.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := svc.Run(ctx); err != nil {
			logger.Error("service error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// The writer stays open until the running cycle has finished publishing.
	select {
	case <-runDone:
	case <-shutdownCtx.Done():
		logger.Warn("refresh cycle still running at shutdown timeout")
	}
	if err := svc.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
