package main

import (
	"errors"

	"plenary/internal/app/bootstrap"
	"plenary/internal/platform/config"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the chamber tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			if cfg.DatabaseDriver == config.DriverMemory {
				return errors.New("migrate needs a database driver")
			}
			// Open migrates as part of connecting.
			_, database, err := bootstrap.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()
			logger.Info("schema migrated",
				"event", "plenaryctl_migrated",
				"driver", cfg.DatabaseDriver,
			)
			return nil
		},
	}
}
