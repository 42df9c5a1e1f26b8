package main

import (
	"fmt"
	"log/slog"
	"os"

	"plenary/internal/app/bootstrap"
	"plenary/internal/platform/config"

	"github.com/spf13/cobra"
)

const programName = "plenaryctl"

var globalFlags = struct {
	debug      bool
	configFile string
	driver     string
	dsn        string
}{}

// commonRun loads configuration, applies flag overrides and installs the
// logger. Every subcommand starts here.
func commonRun() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(globalFlags.configFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globalFlags.driver != "" {
		cfg.DatabaseDriver = globalFlags.driver
	}
	if globalFlags.dsn != "" {
		cfg.DatabaseDSN = globalFlags.dsn
	}
	if globalFlags.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	logger, err := bootstrap.NewLogger(os.Stderr, cfg, programName)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operate the plenary session coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.configFile, "config", os.Getenv("PLENARY_CONFIG_FILE"), "path to config file")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.driver, "driver", "", "database driver override (postgres, sqlite, memory)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.dsn, "dsn", "", "database DSN override")

	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(legislatorsCommand())
	rootCmd.AddCommand(agendaCommand())
	rootCmd.AddCommand(serveDevCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
