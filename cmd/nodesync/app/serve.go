package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/nodesync/internal/app"
	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/telemetry"
	"github.com/stacklok/nodesync/internal/versions"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	telemetryFlushTimeout  = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sync worker and HTTP API",
		Long: `Start the sync worker. Jobs are consumed from the configured Redis stream,
or run in process when no queue section is present. The HTTP API accepts new
jobs and reports their progress.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Int("concurrency", 10, "Jobs of one consumed batch run at once")
	cmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout, "Graceful shutdown timeout")

	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	address, err := flags.GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}
	concurrency, err := flags.GetInt("concurrency")
	if err != nil {
		return fmt.Errorf("failed to get concurrency flag: %w", err)
	}
	shutdownTimeout, err := flags.GetDuration("shutdown-timeout")
	if err != nil {
		return fmt.Errorf("failed to get shutdown-timeout flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"storage", cfg.GetStorageType(),
		"queue", cfg.Queue != nil)

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []app.AppOption{
		app.WithConfig(cfg),
		app.WithAddress(address),
		app.WithConcurrency(concurrency),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, app.WithMetricsHandler(h))
	}

	worker, err := app.NewApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- worker.Start()
	}()

	select {
	case err := <-errChan:
		if stopErr := worker.Stop(shutdownTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	case <-ctx.Done():
	}

	return worker.Stop(shutdownTimeout)
}
