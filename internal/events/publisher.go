package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"message-service/internal/config"
	"message-service/internal/metrics"
)

const (
	TypeMessageCreated = "message.created"
	TypeMessageUpdated = "message.updated"
	TypeMessageDeleted = "message.deleted"
)

// Event is a committed change to a message. Key is the message id and is used
// as the partition key by brokers that have one.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New builds the publisher selected by cfg.Driver, instrumented with m.
func New(cfg config.EventsConfig, m *metrics.MessagingMetrics, logger *slog.Logger) (Publisher, error) {
	var (
		publisher Publisher
		err       error
	)

	switch cfg.Driver {
	case "", "none":
		return NewNoop(), nil
	case "nats":
		publisher, err = NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		publisher, err = NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s publisher: %w", cfg.Driver, err)
	}

	return WithMetrics(publisher, cfg.Driver, m), nil
}

type noopPublisher struct{}

func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }

type instrumentedPublisher struct {
	Publisher
	driver  string
	metrics *metrics.MessagingMetrics
}

// WithMetrics records duration and failures of every Publish call.
func WithMetrics(p Publisher, driver string, m *metrics.MessagingMetrics) Publisher {
	return &instrumentedPublisher{Publisher: p, driver: driver, metrics: m}
}

func (p *instrumentedPublisher) Publish(ctx context.Context, event Event) error {
	start := time.Now()
	err := p.Publisher.Publish(ctx, event)
	p.metrics.RecordPublish(ctx, p.driver, event.Type, time.Since(start), err)
	return err
}
