package ports

import (
	"context"
	"encoding/json"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
)

type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (entities.Session, error)
	// LockSession reads the session and holds it for the rest of the
	// transaction. Every session-scoped mutation starts here.
	LockSession(ctx context.Context, sessionID string) (entities.Session, error)
	GetActiveSession(ctx context.Context) (entities.Session, bool, error)
	ListSessions(ctx context.Context) ([]entities.Session, error)
	CreateSession(ctx context.Context, session entities.Session) error
	SaveSession(ctx context.Context, session entities.Session) error
}

type InitiativeRepository interface {
	GetInitiative(ctx context.Context, initiativeID string) (entities.Initiative, error)
	LockInitiative(ctx context.Context, initiativeID string) (entities.Initiative, error)
	ListInitiativesBySession(ctx context.Context, sessionID string) ([]entities.Initiative, error)
	CreateInitiative(ctx context.Context, initiative entities.Initiative) error
	SaveInitiative(ctx context.Context, initiative entities.Initiative) error
}

type RollCallRepository interface {
	GetRollCall(ctx context.Context, rollCallID string) (entities.RollCall, error)
	GetCurrentRollCall(ctx context.Context, sessionID string) (entities.RollCall, bool, error)
	CreateRollCall(ctx context.Context, rollCall entities.RollCall) error
	SaveRollCall(ctx context.Context, rollCall entities.RollCall) error
	UpsertAttendance(ctx context.Context, attendance entities.Attendance) error
	GetAttendance(ctx context.Context, rollCallID string, legislatorID string) (entities.Attendance, bool, error)
	ListAttendance(ctx context.Context, rollCallID string) ([]entities.Attendance, error)
}

type VoteRepository interface {
	UpsertVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, initiativeID string, legislatorID string) (entities.Vote, bool, error)
	ListVotesByInitiative(ctx context.Context, initiativeID string) ([]entities.Vote, error)
}

// LegislatorRegistry is the local view of the external legislator registry.
type LegislatorRegistry interface {
	GetLegislator(ctx context.Context, legislatorID string) (entities.Legislator, error)
	ListLegislators(ctx context.Context, activeOnly bool) ([]entities.Legislator, error)
	CountActiveLegislators(ctx context.Context) (int, error)
	SaveLegislator(ctx context.Context, legislator entities.Legislator) error
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// Tx is the set of repositories visible inside one unit of work.
type Tx interface {
	SessionRepository
	InitiativeRepository
	RollCallRepository
	VoteRepository
	LegislatorRegistry
	OutboxWriter
}

// Store runs units of work. WithinTx commits only when fn returns nil; View
// is read-only and takes no write locks.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// Metrics receives command and relay outcomes. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ObserveCommand(operation string, outcome string, elapsed time.Duration)
	ObserveVote(choice entities.VoteChoice)
	ObserveOutboxPublished(count int)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
