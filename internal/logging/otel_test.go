package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFields_Span(t *testing.T) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()),
	)
	ctx, span := tp.Tracer("test").Start(context.Background(), "list")
	defer span.End()

	fields := ContextFields(WithUserID(ctx, "u-1"))
	require.Len(t, fields, 4)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, span.SpanContext().TraceID().String(), fields[0].String)
	assert.Equal(t, "span_id", fields[1].Key)
	assert.Equal(t, "trace_sampled", fields[2].Key)
	assert.Equal(t, "user.id", fields[3].Key)
}

func TestNewLoggerWithProvider_TeesFileAndOTEL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uigen.log")
	cfg := NewDefaultConfig()
	cfg.Output.File = path
	cfg.Output.OTEL = true

	logger, err := NewLoggerWithProvider(cfg, noop.NewLoggerProvider())
	require.NoError(t, err)
	logger.Info(context.Background(), "project created")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "project created")
}

func TestRedactingCore(t *testing.T) {
	inner, observed := observer.New(zapcore.DebugLevel)
	r, err := newRedactor(NewDefaultConfig().Redaction)
	require.NoError(t, err)
	core := &redactingCore{Core: inner, level: zapcore.InfoLevel, r: r}

	log := zap.New(core).With(zap.String("token", "abc"))
	log.Debug("dropped")
	log.Info("sent Bearer abc123", zap.String("password", "hunter2"), zap.String("name", "Alpha"))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, redactedMatch, entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, redactedKey, fields["token"])
	assert.Equal(t, redactedKey, fields["password"])
	assert.Equal(t, "Alpha", fields["name"])
}
