package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"message-service/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogger(t *testing.T) {
	t.Run("JSONWithTraceContext", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, "prod")

		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

		log.InfoContext(ctx, "message created", "id", 7)

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "message created", record["msg"])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", record["span_id"])
		assert.EqualValues(t, 7, record["id"])
	})

	t.Run("TextWithoutTraceContext", func(t *testing.T) {
		if _, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST"); inK8s {
			t.Skip("JSON output is forced inside Kubernetes")
		}

		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, "local")

		log.Error("failed to delete message", "id", 3)

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, "failed to delete message")
		assert.Contains(t, out, "id=3")
		assert.NotContains(t, out, "trace_id")
	})
}
