package main

import (
	"os"
	"os/signal"
	"syscall"

	"plenary/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func serveDevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-dev",
		Short: "Run the API, outbox relay and display feed in one process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.BuildDev(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
}
