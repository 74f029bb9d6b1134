package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
	Health    *HealthMetrics
	HTTP      *HTTPMetrics
	Messages  *MessageMetrics
	Runtime   *RuntimeMetrics
	meter     metric.Meter
	logger    *slog.Logger
}

// New builds every collector on the global meter provider. Without a configured
// provider the instruments are no-ops.
func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	messages, err := NewMessageMetrics(meter)
	if err != nil {
		return nil, err
	}

	runtimeMetrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "metrics collectors initialized successfully")

	return &Metrics{
		Database:  database,
		Messaging: messaging,
		Health:    health,
		HTTP:      httpMetrics,
		Messages:  messages,
		Runtime:   runtimeMetrics,
		meter:     meter,
		logger:    logger,
	}, nil
}

// Meter returns the meter the collectors were created on, or nil for a mock.
func (m *Metrics) Meter() metric.Meter {
	return m.meter
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:  &DatabaseMetrics{},
		Messaging: &MessagingMetrics{},
		Health:    &HealthMetrics{},
		HTTP:      &HTTPMetrics{},
		Messages:  &MessageMetrics{},
		Runtime:   &RuntimeMetrics{},
	}
}
