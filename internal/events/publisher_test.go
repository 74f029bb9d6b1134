package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"message-service/internal/config"
	"message-service/internal/events"
	"message-service/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct {
	err    error
	closed bool
}

func (p *failingPublisher) Publish(context.Context, events.Event) error { return p.err }

func (p *failingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("NoneDriver", func(t *testing.T) {
		publisher, err := events.New(config.EventsConfig{Driver: "none"}, metrics.NewMock().Messaging, logger)
		require.NoError(t, err)

		assert.NoError(t, publisher.Publish(context.Background(), events.Event{Type: events.TypeMessageCreated}))
		assert.NoError(t, publisher.Close())
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := events.New(config.EventsConfig{Driver: "smtp"}, metrics.NewMock().Messaging, logger)
		assert.Error(t, err)
	})
}

func TestWithMetrics(t *testing.T) {
	boom := errors.New("boom")
	inner := &failingPublisher{err: boom}

	publisher := events.WithMetrics(inner, "nats", metrics.NewMock().Messaging)

	err := publisher.Publish(context.Background(), events.Event{Type: events.TypeMessageUpdated})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, publisher.Close())
	assert.True(t, inner.closed)
}
