package messaging

import (
	"context"
	"log/slog"
	"sync"

	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

const subscriberBuffer = 128

// Bus is the event bus behind the outbox relay and the public display feed.
// Delivery is in-process; brokers are recorded for the external transport.
type Bus struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]*subscription
	wg          sync.WaitGroup
	logger      *slog.Logger
}

type subscription struct {
	group string
	ch    chan ports.EventEnvelope
}

func NewBus(brokers []string, logger *slog.Logger) *Bus {
	return &Bus{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]*subscription),
		logger:      logger,
	}
}

func (b *Bus) Brokers() []string {
	return append([]string(nil), b.brokers...)
}

// Publish hands the event to every subscriber of topic. A subscriber whose
// buffer is full loses the event; the outbox row is still marked published.
func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("dropping event for slow subscriber",
					"event", "bus_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", sub.group,
					"event_id", event.EventID,
				)
			}
		}
	}

	if b.logger != nil {
		b.logger.Debug("event published",
			"event", "bus_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"subscribers", len(subs),
		)
	}
	return nil
}

// Subscribe starts a consumer goroutine that runs until ctx is done.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	sub := &subscription{group: consumerGroup, ch: make(chan ports.EventEnvelope, subscriberBuffer)}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, sub)
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil && b.logger != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Wait blocks until every consumer goroutine has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) removeSubscriber(topic string, target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		delete(b.subscribers, topic)
		return
	}
	b.subscribers[topic] = filtered
}

var (
	_ ports.EventPublisher  = (*Bus)(nil)
	_ ports.EventSubscriber = (*Bus)(nil)
)
