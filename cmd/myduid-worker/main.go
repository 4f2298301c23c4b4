package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"myduid/internal/amqp"
	"myduid/internal/cli"
	"myduid/internal/log"
	"myduid/internal/sheets"
	gsheet "myduid/internal/sheets/google"
	mem "myduid/internal/sheets/memory"
	"myduid/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting myduid-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	var writer sheets.SnapshotWriter
	if cfg.MirrorEnabled() {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	// The worker only reads the ledger, so it never publishes events.
	svc := cli.NewServices(cfg, logger, store, nil)

	mirrorCfg := worker.DefaultMirrorConfig()
	mirrorCfg.Interval = cfg.MirrorInterval
	mirror := worker.NewMirror(svc.Export, store, writer, mirrorCfg, logger.WithComponent(log.ComponentWorker))

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		amqpClient = c
		defer amqpClient.Close()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := mirror.Stop(ctx); err != nil {
			logger.Error("Mirror shutdown error", log.FieldError, err)
		}
		if n, err := mirror.Flush(ctx); err != nil {
			logger.Warn("Final mirror flush incomplete", "synced", n, log.FieldError, err)
		}
	})

	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to start mirror", log.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeEvents(ctx, mirror.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed, relying on periodic resync", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
