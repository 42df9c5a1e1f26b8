package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "plenary/contexts/chamber-floor/roll-call-voting/application"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

// OutboxRelay publishes committed outbox rows to the notification channel.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch in commit order. A row is marked
// published only after the publish succeeded; the first failure ends the
// cycle so the next one resumes from that row.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("plenary outbox list failed",
			"event", "plenary_outbox_list_failed",
			"module", application.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("plenary outbox relay found no pending rows",
			"event", "plenary_outbox_relay_noop",
			"module", application.Module,
			"layer", "worker",
			"batch_size", limit,
		)
		return 0, nil
	}

	published := 0
	defer func() {
		if r.Metrics != nil && published > 0 {
			r.Metrics.ObserveOutboxPublished(published)
		}
	}()
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("plenary outbox decode failed",
				"event", "plenary_outbox_decode_failed",
				"module", application.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("plenary outbox publish failed",
				"event", "plenary_outbox_publish_failed",
				"module", application.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			logger.Error("plenary outbox mark published failed",
				"event", "plenary_outbox_mark_published_failed",
				"module", application.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("plenary outbox relay cycle completed",
		"event", "plenary_outbox_relay_completed",
		"module", application.Module,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
