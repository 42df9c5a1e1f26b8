package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"plenary/internal/app/bootstrap"
	"plenary/internal/platform/config"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger, err := bootstrap.NewLogger(os.Stdout, cfg, "plenary-api")
	if err != nil {
		log.Fatalf("configure logger failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap api failed", "event", "bootstrap_api_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("api shutdown close failed", "event", "bootstrap_api_close_failed", "error", err.Error())
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("plenary api stopped with error", "event", "bootstrap_api_stopped", "error", err.Error())
		stop()
		os.Exit(1)
	}
}
