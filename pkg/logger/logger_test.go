package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLogger(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNew(t *testing.T) {
	log := New("warn", "production")
	require.NotNil(t, log)
	assert.False(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Zap().Core().Enabled(zapcore.WarnLevel))

	dev := New("debug", "development")
	assert.True(t, dev.Zap().Core().Enabled(zapcore.DebugLevel))
}

func TestForEvent(t *testing.T) {
	log, logs := newObserved()

	log.ForEvent("evt_1", "lead.created").Infow("Processing lead event", "lead_id", "l1")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "evt_1", fields["event_id"])
	assert.Equal(t, "lead.created", fields["event_type"])
	assert.Equal(t, "l1", fields["lead_id"])
}

func TestForRequest(t *testing.T) {
	log, logs := newObserved()

	log.ForRequest("req-1", "POST", "/api/funnelfox/v1/webhooks").Infow("HTTP Request")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
}

func TestWithContext(t *testing.T) {
	log, logs := newObserved()

	log.CtxInfo(context.Background(), "no span")
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.CtxWarn(ctx, "with span")
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}
