// Package main boots the studio stock HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"studiostock/internal/adapters/httpapi"
	"studiostock/internal/config"
	"studiostock/internal/core"
	"studiostock/internal/obs"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := obs.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("service_starting", "storage", string(cfg.Storage.Driver), "cache", string(cfg.Storage.Cache), "metrics", cfg.Metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := core.OpenRecordStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("store_close_error", "error", err)
		}
	}()

	telemetry, err := obs.NewTelemetry(cfg.Metrics, cfg.TraceOutput)
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Close(); err != nil {
			logger.Error("trace_close_error", "error", err)
		}
	}()
	opts := append([]core.Option{
		core.WithLogger(logger),
		core.WithWriteGuard(cfg.GuardWrites),
	}, telemetry.Options...)
	svc := core.NewService(store, opts...)
	if _, err := svc.Refresh(ctx); err != nil {
		// The next request retries the load.
		logger.Warn("initial_load_failed", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	handler := httpapi.NewHandler(svc, httpapi.NewSessions(0, nil), core.ReorderPolicy{TargetMultiplier: cfg.ReorderMultiplier})
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{Logger: logger, Metrics: telemetry.Handler})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	logger.Info("service_stopped")
	return nil
}
