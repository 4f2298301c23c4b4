package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"myduid/internal/cli"
	"myduid/internal/config"
	"myduid/internal/log"
	"myduid/internal/storage"
)

// app is the state shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  *storage.Store
	svc    *cli.Services
}

// openApp loads and validates configuration and opens the store. Logs go to
// stderr so command output stays machine readable.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lvl := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}),
	})

	store, err := cli.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    cli.NewServices(cfg, logger, store, nil),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
