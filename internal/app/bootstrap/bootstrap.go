package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	rollcallvoting "plenary/contexts/chamber-floor/roll-call-voting"
	"plenary/contexts/chamber-floor/roll-call-voting/adapters/agendafile"
	"plenary/contexts/chamber-floor/roll-call-voting/adapters/memory"
	metricsadapter "plenary/contexts/chamber-floor/roll-call-voting/adapters/metrics"
	postgresadapter "plenary/contexts/chamber-floor/roll-call-voting/adapters/postgres"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	workerapp "plenary/contexts/chamber-floor/roll-call-voting/application/workers"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	"plenary/internal/platform/config"
	"plenary/internal/platform/db"
	"plenary/internal/platform/httpserver"
	"plenary/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// SystemActor performs startup maintenance such as roster seeding.
var SystemActor = commands.Actor{ActorID: "system", Role: "secretariat"}

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	logger   *slog.Logger
}

type WorkerApp struct {
	database     *db.Database
	outboxRelay  workerapp.OutboxRelay
	display      workerapp.DisplayFeed
	bus          *messaging.Bus
	pollInterval time.Duration
	logger       *slog.Logger
}

// DevApp runs the API, the relay and the display feed in one process over a
// shared store.
type DevApp struct {
	api    *APIApp
	worker *WorkerApp
}

type runtime struct {
	module   rollcallvoting.Module
	database *db.Database
	registry *prometheus.Registry
	metrics  *metricsadapter.Prometheus
}

// Open connects the configured store, runs migrations and seeds the roster.
// Exposed for the operator CLI.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (rollcallvoting.Module, *db.Database, error) {
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return rollcallvoting.Module{}, nil, err
	}
	return rt.module, rt.database, nil
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := metricsadapter.NewPrometheus(registry)

	var roster []entities.Legislator
	if path := strings.TrimSpace(cfg.RosterFile); path != "" {
		loaded, err := agendafile.LoadRosterFile(path)
		if err != nil {
			return nil, err
		}
		roster = loaded
	}

	rt := &runtime{registry: registry, metrics: metrics}
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		store := memory.NewStore(roster)
		rt.module = rollcallvoting.NewModule(rollcallvoting.Dependencies{
			Store:   store,
			Outbox:  store,
			Clock:   store,
			IDGen:   store,
			Metrics: metrics,
			Logger:  logger,
		})
		rt.module.Store = store
		return rt, nil
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	database, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	repo := postgresadapter.NewRepository(database.DB, logger)
	if err := repo.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	rt.database = database
	rt.module = rollcallvoting.NewModule(rollcallvoting.Dependencies{
		Store:   repo,
		Outbox:  repo,
		Clock:   postgresadapter.SystemClock{},
		IDGen:   postgresadapter.UUIDGenerator{},
		Metrics: metrics,
		Logger:  logger,
	})
	if len(roster) > 0 {
		changed, err := rt.module.Coordinator.RegisterLegislators(ctx, SystemActor, roster)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		logger.Info("legislator roster seeded",
			"event", "bootstrap_roster_seeded",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"roster_size", len(roster),
			"changed", changed,
		)
	}
	return rt, nil
}

func (rt *runtime) metricsHandler(cfg config.Config) http.Handler {
	if !cfg.MetricsEnabled {
		return nil
	}
	return promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{Registry: rt.registry})
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "api")
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newAPIApp(rt, cfg, logger), nil
}

func newAPIApp(rt *runtime, cfg config.Config, logger *slog.Logger) *APIApp {
	return &APIApp{
		server:   httpserver.New(rt.module, rt.metricsHandler(cfg), logger, normalizeAddr(cfg.HTTPPort)),
		database: rt.database,
		logger:   logger,
	}
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		return nil, errors.New("worker needs a shared database; set PLENARY_DATABASE_DRIVER")
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWorkerApp(rt, cfg, logger), nil
}

func newWorkerApp(rt *runtime, cfg config.Config, logger *slog.Logger) *WorkerApp {
	bus := messaging.NewBus(cfg.KafkaBrokers, logger)
	return &WorkerApp{
		database:    rt.database,
		outboxRelay: rt.module.NewOutboxRelay(bus, rt.metrics, cfg.OutboxBatch, logger),
		display: workerapp.DisplayFeed{
			Subscriber: bus,
			Logger:     logger,
		},
		bus:          bus,
		pollInterval: cfg.OutboxPoll,
		logger:       logger,
	}
}

func BuildDev(ctx context.Context, cfg config.Config, logger *slog.Logger) (*DevApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "dev")
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &DevApp{
		api:    newAPIApp(rt, cfg, logger),
		worker: newWorkerApp(rt, cfg, logger),
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.display.Start(ctx); err != nil {
		return err
	}
	defer w.bus.Wait()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if _, err := w.outboxRelay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			// A failed row stays pending; the next tick retries it.
			w.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_worker_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.database != nil {
		return w.database.Close()
	}
	return nil
}

func (d *DevApp) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return d.api.Run(ctx) })
	group.Go(func() error { return d.worker.Run(ctx) })
	return group.Wait()
}

// Close releases the shared database once; api and worker hold the same
// handle.
func (d *DevApp) Close() error {
	return d.api.Close()
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") || strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}
