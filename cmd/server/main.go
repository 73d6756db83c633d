package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/DataTransformer/internal/config"
	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/JonMunkholm/DataTransformer/internal/logging"
	"github.com/JonMunkholm/DataTransformer/internal/metrics"
	"github.com/JonMunkholm/DataTransformer/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_files", cfg.Upload.MaxFiles,
		"max_file_size", core.FormatKB(cfg.Upload.MaxFileSize),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"workers", cfg.Pipeline.Workers,
		"rate_limit_enabled", cfg.RateLimit.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	var (
		observer       core.Observer
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		recorder := metrics.NewRecorder()
		observer = recorder
		metricsHandler = recorder.Handler()
	}

	service := core.NewService(cfg, observer)

	server, err := web.NewServer(service, cfg, metricsHandler)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown did not complete in time", "error", err)
			return
		}
		slog.Info("all uploads completed")
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
