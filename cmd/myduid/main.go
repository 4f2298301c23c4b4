package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"myduid/internal/amqp"
	"myduid/internal/cache"
	"myduid/internal/cli"
	apphttp "myduid/internal/http"
	"myduid/internal/log"
	"myduid/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	// Publishing is optional; without a broker the mirror worker only
	// catches up on its periodic resync.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err)
		} else {
			amqpClient = c
			events = c
			defer amqpClient.Close()
		}
	}

	svc := cli.NewServices(cfg, logger, store, events)

	caches := cache.NewManager()
	caches.Register(svc.Views)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AuthHeader:         cfg.AuthHeader,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultListLimit:   cfg.DefaultListLimit,
	}, apphttp.Services{
		Ledger: svc.Ledger,
		Goals:  svc.Goals,
		Users:  svc.Users,
		Export: svc.Export,
		Health: store,
	}, logger.WithComponent(log.ComponentHTTP))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting myduid server",
		"port", cfg.Port,
		"database", cfg.SQLiteDBPath,
		"events", events != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
