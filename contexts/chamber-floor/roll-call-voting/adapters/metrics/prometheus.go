package metrics

import (
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements ports.Metrics on a caller-supplied registry.
type Prometheus struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	votes           *prometheus.CounterVec
	outboxPublished prometheus.Counter
}

func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	factory := promauto.With(registerer)
	return &Prometheus{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plenary_commands_total",
			Help: "coordinator commands by operation and outcome",
		}, []string{"operation", "outcome"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plenary_command_duration_seconds",
			Help:    "coordinator command latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plenary_votes_recorded_total",
			Help: "accepted votes by choice",
		}, []string{"choice"}),
		outboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "plenary_outbox_published_total",
			Help: "outbox rows relayed to the notification channel",
		}),
	}
}

func (p *Prometheus) ObserveCommand(operation string, outcome string, elapsed time.Duration) {
	p.commands.WithLabelValues(operation, outcome).Inc()
	p.commandDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (p *Prometheus) ObserveVote(choice entities.VoteChoice) {
	p.votes.WithLabelValues(string(choice)).Inc()
}

func (p *Prometheus) ObserveOutboxPublished(count int) {
	p.outboxPublished.Add(float64(count))
}

var _ ports.Metrics = (*Prometheus)(nil)
