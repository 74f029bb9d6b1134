package telemetry_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"message-service/internal/config"
	"message-service/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ExportDisabled(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tel, err := telemetry.Init(ctx, config.TelemetryConfig{Enabled: false}, "message-service", "test", "unittest", logger)
	require.NoError(t, err)

	assert.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Metrics)
	assert.NotNil(t, tel.Metrics.Messages)
	assert.NotNil(t, tel.Metrics.HTTP)

	// Recording on the global no-op provider must not panic
	tel.Metrics.Messages.RecordCreated(ctx)

	assert.NoError(t, tel.Shutdown(ctx, logger))
}

func TestShutdown_NilTelemetry(t *testing.T) {
	var tel *telemetry.Telemetry
	assert.NoError(t, tel.Shutdown(context.Background(), slog.Default()))
}
