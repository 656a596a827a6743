package logging

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/fyrsmithlabs/uigen"

// newOTELCore bridges entries to an OpenTelemetry LoggerProvider. The bridge
// sees fields, not encoded bytes, so redaction is applied per field.
func newOTELCore(provider log.LoggerProvider, level zapcore.LevelEnabler, cfg RedactionConfig) (zapcore.Core, error) {
	if provider == nil {
		provider = global.GetLoggerProvider()
	}
	r, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	bridge := otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(provider))
	return &redactingCore{Core: bridge, level: level, r: r}, nil
}

// redactingCore applies the redaction rules to fields before the wrapped
// core sees them.
type redactingCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
	r     redactor
}

func (c *redactingCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.clean(fields)), level: c.level, r: c.r}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if s := c.r.forValue(ent.Message); s != "" {
		ent.Message = s
	}
	return c.Core.Write(ent, c.clean(fields))
}

func (c *redactingCore) clean(fields []zapcore.Field) []zapcore.Field {
	if !c.r.active() {
		return fields
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = c.r.field(f)
	}
	return out
}
