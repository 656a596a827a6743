package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	userKey ctxKey = iota
	projectKey
	requestKey
	loggerKey
)

// correlation lists the ids copied onto every entry, in output order.
var correlation = []struct {
	key   ctxKey
	field string
}{
	{userKey, "user.id"},
	{projectKey, "project.id"},
	{requestKey, "request.id"},
}

// ContextFields returns the correlation ids stored on ctx as zap fields,
// led by trace_id and span_id when ctx carries a valid span.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, len(correlation)+3)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	for _, c := range correlation {
		if v := stringValue(ctx, c.key); v != "" {
			fields = append(fields, zap.String(c.field, v))
		}
	}
	return fields
}

func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithUserID records the signed-in user. Empty ids leave ctx unchanged.
func WithUserID(ctx context.Context, id string) context.Context {
	return withString(ctx, userKey, id)
}

// UserIDFromContext returns the id stored by WithUserID.
func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, userKey) }

// WithProjectID records the active project. Empty ids leave ctx unchanged.
func WithProjectID(ctx context.Context, id string) context.Context {
	return withString(ctx, projectKey, id)
}

// WithRequestID records an HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestKey, id)
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return NewNop()
}
