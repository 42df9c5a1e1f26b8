package workers

import (
	"context"
	"log/slog"
	"strings"

	application "plenary/contexts/chamber-floor/roll-call-voting/application"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

const defaultDisplayCG = "plenary-display-cg"

// DisplayFeed subscribes to every chamber topic and forwards the events to
// the public display sink. Topics are consumed independently, so the sink
// sees commit order within a topic but not across topics.
type DisplayFeed struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	// Sink receives each event. A nil sink only logs.
	Sink   func(context.Context, ports.EventEnvelope) error
	Logger *slog.Logger
}

func (f DisplayFeed) Start(ctx context.Context) error {
	logger := application.ResolveLogger(f.Logger)
	group := strings.TrimSpace(f.ConsumerGroup)
	if group == "" {
		group = defaultDisplayCG
	}
	for _, topic := range commands.EventTypes() {
		if err := f.Subscriber.Subscribe(ctx, topic, group, f.handle); err != nil {
			logger.Error("display feed subscribe failed",
				"event", "plenary_display_subscribe_failed",
				"module", application.Module,
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("display feed subscriptions active",
		"event", "plenary_display_subscriptions_active",
		"module", application.Module,
		"layer", "worker",
		"consumer_group", group,
		"topics", len(commands.EventTypes()),
	)
	return nil
}

func (f DisplayFeed) handle(ctx context.Context, event ports.EventEnvelope) error {
	application.ResolveLogger(f.Logger).Info("display event received",
		"event", "plenary_display_event_received",
		"module", application.Module,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
	)
	if f.Sink == nil {
		return nil
	}
	return f.Sink(ctx, event)
}
