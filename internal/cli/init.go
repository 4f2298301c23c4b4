// Package cli provides the initialization shared by cmd/myduid,
// cmd/myduid-worker and cmd/myduidctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"myduid/internal/cache"
	"myduid/internal/config"
	"myduid/internal/core"
	"myduid/internal/log"
	"myduid/internal/services"
	"myduid/internal/storage"
)

// SetupLogger installs a text handler on stdout at the given level and
// makes it the slog default.
func SetupLogger(level string) *log.Logger {
	lvl := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the database; storage.Open applies pending migrations.
func OpenStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.SQLiteDBPath, storage.Options{BusyTimeout: cfg.SQLiteBusyTimeout})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// InitStore is OpenStore that exits the process on failure.
func InitStore(logger *log.Logger, cfg *config.Config) *storage.Store {
	store, err := OpenStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return store
}

// Services bundles the caller-scoped services built from one Deps.
type Services struct {
	Ledger *services.LedgerService
	Goals  *services.GoalService
	Users  *services.UserService
	Export *services.ExportService
	Views  *cache.LRUCache[core.Dashboard]
}

// NewServices wires the services against store. Pass a nil interface,
// not a nil *amqp.Client, when publishing is disabled.
func NewServices(cfg *config.Config, logger *log.Logger, store *storage.Store, events services.EventPublisher) *Services {
	views := cache.NewLRUCache[core.Dashboard](1000, cfg.StatsCacheTTL)
	deps := services.Deps{
		Store:    store,
		Views:    views,
		Logger:   logger,
		Location: cfg.Location(),
		Events:   events,
	}
	return &Services{
		Ledger: services.NewLedgerService(deps),
		Goals:  services.NewGoalService(deps),
		Users:  services.NewUserService(deps, cfg.BcryptCost),
		Export: services.NewExportService(deps),
		Views:  views,
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
