// Package app provides application lifecycle management for the nodesync worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/nodesync/internal/config"
)

// App runs the HTTP API and, when a queue is configured, the job consumer.
type App struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the queue consumer in the background and serves HTTP.
// It blocks until the HTTP server stops or fails.
func (app *App) Start() error {
	if consumer := app.components.Consumer; consumer != nil {
		go func() {
			if err := consumer.Start(app.ctx); err != nil {
				slog.Error("Queue consumer failed", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop stops consuming, shuts the HTTP server down within timeout, waits for
// in-process jobs and releases storage and queue connections.
func (app *App) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if consumer := app.components.Consumer; consumer != nil {
		if err := consumer.Stop(); err != nil {
			slog.Error("Failed to stop queue consumer", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)

	if svc := app.components.JobService; svc != nil {
		if drainErr := svc.Drain(shutdownCtx); drainErr != nil {
			slog.Error("In-process jobs did not finish before shutdown", "error", drainErr)
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *App) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *App) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components.
func (app *App) Components() *AppComponents {
	return app.components
}
