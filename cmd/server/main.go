/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the billing schedule engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment variables
  2. Build the structured logger
  3. Initialize SQLite store
  4. Wire the schedule service and API handler
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

ENVIRONMENT:
  ENV              Deployment environment name (default: prod)
  HTTP_PORT        Server port (default: 8080)
  HTTP_RATE_LIMIT  Sustained per-IP requests/sec (default: 20)
  HTTP_RATE_BURST  Per-IP burst allowance (default: 40)
  LOG_LEVEL        debug|info|warn|error (default: info)
  LOG_FORMAT       text|json (default: text)
  DB_PATH          SQLite database path (default: billing.db,
                   use ":memory:" for in-memory)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/billing-engine/api"
	"github.com/warp/billing-engine/config"
	"github.com/warp/billing-engine/factory"
	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger()

	// Initialize store
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Wire service and handler
	service := plan.NewService(store, factory.DefaultRates())
	handler := api.NewHandler(service, store, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "env", cfg.Env, "port", cfg.HTTP.Port, "db", cfg.DB.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
