package rollcallvoting

import (
	"log/slog"

	httpadapter "plenary/contexts/chamber-floor/roll-call-voting/adapters/http"
	"plenary/contexts/chamber-floor/roll-call-voting/adapters/memory"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/application/queries"
	"plenary/contexts/chamber-floor/roll-call-voting/application/workers"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Coordinator commands.Coordinator
	Queries     queries.ChamberQueries
	Outbox      ports.OutboxRepository
	// Store is set only for in-memory modules.
	Store *memory.Store
}

type Dependencies struct {
	Store   ports.Store
	Outbox  ports.OutboxRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	coordinator := commands.Coordinator{
		Store:   deps.Store,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	chamberQueries := queries.ChamberQueries{
		Store: deps.Store,
		Clock: deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Coordinator: coordinator,
			Queries:     chamberQueries,
			Logger:      deps.Logger,
		},
		Coordinator: coordinator,
		Queries:     chamberQueries,
		Outbox:      deps.Outbox,
	}
}

// NewOutboxRelay wires a relay over the module's outbox.
func (m Module) NewOutboxRelay(publisher ports.EventPublisher, metrics ports.Metrics, batchSize int, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    m.Outbox,
		Publisher: publisher,
		Clock:     m.Queries.Clock,
		Metrics:   metrics,
		BatchSize: batchSize,
		Logger:    logger,
	}
}

func NewInMemoryModule(roster []entities.Legislator, logger *slog.Logger) Module {
	store := memory.NewStore(roster)
	module := NewModule(Dependencies{
		Store:  store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
