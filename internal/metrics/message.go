package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type MessageMetrics struct {
	created    metric.Int64Counter
	updated    metric.Int64Counter
	deleted    metric.Int64Counter
	listViewed metric.Int64Counter
}

func NewMessageMetrics(meter metric.Meter) (*MessageMetrics, error) {
	m := &MessageMetrics{}

	var err error

	m.created, err = meter.Int64Counter(
		"message_service.messages.created",
		metric.WithDescription("Total number of messages created"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	m.updated, err = meter.Int64Counter(
		"message_service.messages.updated",
		metric.WithDescription("Total number of messages updated"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	m.deleted, err = meter.Int64Counter(
		"message_service.messages.deleted",
		metric.WithDescription("Total number of messages deleted"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	m.listViewed, err = meter.Int64Counter(
		"message_service.messages.list_viewed",
		metric.WithDescription("Total number of times the message list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MessageMetrics) RecordCreated(ctx context.Context) {
	if m != nil && m.created != nil {
		m.created.Add(ctx, 1)
	}
}

func (m *MessageMetrics) RecordUpdated(ctx context.Context) {
	if m != nil && m.updated != nil {
		m.updated.Add(ctx, 1)
	}
}

func (m *MessageMetrics) RecordDeleted(ctx context.Context) {
	if m != nil && m.deleted != nil {
		m.deleted.Add(ctx, 1)
	}
}

func (m *MessageMetrics) RecordListViewed(ctx context.Context) {
	if m != nil && m.listViewed != nil {
		m.listViewed.Add(ctx, 1)
	}
}
