package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a context-aware zap logger. Every entry passes through the
// redacting encoder and carries the fields stored on its context.
type Logger struct {
	base   *zap.Logger
	cfg    *Config
	closer io.Closer
}

// NewLogger builds a Logger. With no output configured the logger discards
// everything. Log files are appended to with mode 0600. The OTEL output uses
// the global OpenTelemetry logger provider.
func NewLogger(cfg *Config) (*Logger, error) {
	return NewLoggerWithProvider(cfg, nil)
}

// NewLoggerWithProvider is NewLogger with an explicit provider for the OTEL
// output. A nil provider means the global one.
func NewLoggerWithProvider(cfg *Config, provider log.LoggerProvider) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	enc, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("building encoder: %w", err)
	}

	sink, closer, err := buildSinks(cfg.Output)
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(cfg.Level)
	var cores []zapcore.Core
	if sink != nil {
		cores = append(cores, zapcore.NewCore(enc, sink, level))
	}
	if cfg.Output.OTEL {
		otelCore, err := newOTELCore(provider, level, cfg.Redaction)
		if err != nil {
			return nil, err
		}
		cores = append(cores, otelCore)
	}

	var core zapcore.Core
	switch len(cores) {
	case 0:
		core = zapcore.NewNopCore()
	case 1:
		core = cores[0]
	default:
		core = zapcore.NewTee(cores...)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}

	base := zap.New(core, opts...)
	if len(cfg.Fields) > 0 {
		static := make([]zap.Field, 0, len(cfg.Fields))
		for k, v := range cfg.Fields {
			static = append(static, zap.String(k, v))
		}
		base = base.With(static...)
	}

	return &Logger{base: base, cfg: cfg, closer: closer}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{base: zap.NewNop(), cfg: NewDefaultConfig()}
}

func buildSinks(out OutputConfig) (zapcore.WriteSyncer, io.Closer, error) {
	var (
		sinks  []zapcore.WriteSyncer
		closer io.Closer
	)
	if out.File != "" {
		if err := os.MkdirAll(filepath.Dir(out.File), 0700); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(out.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", out.File, err)
		}
		sinks = append(sinks, zapcore.AddSync(f))
		closer = f
	}
	if out.Stderr {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}
	switch len(sinks) {
	case 0:
		return nil, nil, nil
	case 1:
		return sinks[0], closer, nil
	default:
		return zapcore.NewMultiWriteSyncer(sinks...), closer, nil
	}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
		if l == TraceLevel {
			pae.AppendString("trace")
			return
		}
		zapcore.LowercaseLevelEncoder(l, pae)
	}
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func (l *Logger) log(ctx context.Context, lvl zapcore.Level, msg string, fields []zap.Field) {
	ce := l.base.Check(lvl, msg)
	if ce == nil {
		return
	}
	ce.Write(append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Trace(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, TraceLevel, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

// With returns a child logger. Children share the parent's file and do not
// own it.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{base: l.base.With(fields...), cfg: l.cfg}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{base: l.base.Named(name), cfg: l.cfg}
}

func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.base.Core().Enabled(level)
}

// Sync flushes buffered entries. The EINVAL and ENOTTY errors returned when
// syncing a terminal are ignored.
func (l *Logger) Sync() error {
	err := l.base.Sync()
	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}

// Close syncs and releases the log file.
func (l *Logger) Close() error {
	err := l.Sync()
	if l.closer != nil {
		err = errors.Join(err, l.closer.Close())
	}
	return err
}

// Underlying exposes the wrapped zap logger for libraries that want one.
func (l *Logger) Underlying() *zap.Logger {
	return l.base
}
