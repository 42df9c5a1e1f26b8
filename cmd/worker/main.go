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

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Relay the outbox to the bus and feed the display until signalled.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger, err := bootstrap.NewLogger(os.Stdout, cfg, "plenary-worker")
	if err != nil {
		log.Fatalf("configure logger failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap worker failed", "event", "bootstrap_worker_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("worker shutdown close failed", "event", "bootstrap_worker_close_failed", "error", err.Error())
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("plenary worker stopped with error", "event", "bootstrap_worker_stopped", "error", err.Error())
		stop()
		os.Exit(1)
	}
}
