package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	"plenary/internal/platform/config"

	"go.uber.org/automaxprocs/maxprocs"
)

// NewLogger installs the process-wide JSON logger and aligns GOMAXPROCS with
// the container quota.
func NewLogger(out io.Writer, cfg config.Config, program string) (*slog.Logger, error) {
	level := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: level == slog.LevelDebug,
		Level:     level,
	}))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "component", program)
	})); err != nil {
		return nil, fmt.Errorf("set maxprocs: %w", err)
	}
	return logger, nil
}
