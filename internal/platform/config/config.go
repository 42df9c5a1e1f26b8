package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PLENARY"

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName    string        `yaml:"serviceName"    split_words:"true"`
	HTTPPort       string        `yaml:"httpPort"       envconfig:"HTTP_PORT"`
	DatabaseDriver string        `yaml:"databaseDriver" split_words:"true"`
	DatabaseDSN    string        `yaml:"databaseDsn"    envconfig:"DATABASE_DSN"`
	KafkaBrokers   []string      `yaml:"kafkaBrokers"   split_words:"true"`
	OutboxBatch    int           `yaml:"outboxBatch"    split_words:"true"`
	OutboxPoll     time.Duration `yaml:"outboxPoll"     split_words:"true"`
	LogLevel       string        `yaml:"logLevel"       split_words:"true"`
	MetricsEnabled bool          `yaml:"metricsEnabled" split_words:"true"`
	// RosterFile seeds the legislator registry at startup when set.
	RosterFile string `yaml:"rosterFile" split_words:"true"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

func defaults() Config {
	return Config{
		ServiceName:    "plenary",
		HTTPPort:       "8080",
		DatabaseDriver: DriverMemory,
		KafkaBrokers:   []string{"localhost:9092"},
		OutboxBatch:    100,
		OutboxPoll:     2 * time.Second,
		LogLevel:       "info",
		MetricsEnabled: true,
	}
}

// Load reads the optional YAML file named by PLENARY_CONFIG_FILE and then
// applies PLENARY_* environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv(envPrefix + "_CONFIG_FILE"))
}

func LoadFile(path string) (Config, error) {
	cfg := defaults()
	if path = strings.TrimSpace(path); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("%s_DATABASE_DSN is required for driver %s", envPrefix, c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.OutboxBatch <= 0 {
		return errors.New("outbox batch must be positive")
	}
	if c.OutboxPoll <= 0 {
		return errors.New("outbox poll interval must be positive")
	}
	brokers := c.KafkaBrokers[:0]
	for _, broker := range c.KafkaBrokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	c.KafkaBrokers = brokers
	return nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
