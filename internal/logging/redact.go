package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/uigen/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	redactedKey   = "[REDACTED]"
	redactedMatch = "[REDACTED:pattern]"
)

// Secret logs a config.Secret as its length only.
func Secret(key string, val config.Secret) zap.Field {
	return RedactedString(key, val.Value())
}

// RedactedString logs val as "[REDACTED:<len>]".
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactor decides what a key or value is replaced with. An empty result
// means keep the original.
type redactor struct {
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

func newRedactor(cfg RedactionConfig) (redactor, error) {
	var r redactor
	if !cfg.Enabled {
		return r, nil
	}
	r.keys = make(map[string]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		r.keys[strings.ToLower(f)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return r, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r redactor) active() bool { return len(r.keys) > 0 || len(r.patterns) > 0 }

func (r redactor) forKey(key string) string {
	if _, ok := r.keys[strings.ToLower(key)]; ok {
		return redactedKey
	}
	return ""
}

func (r redactor) forValue(val string) string {
	for _, re := range r.patterns {
		if re.MatchString(val) {
			return redactedMatch
		}
	}
	return ""
}

func (r redactor) field(f zapcore.Field) zapcore.Field {
	if s := r.forKey(f.Key); s != "" {
		return zap.String(f.Key, s)
	}
	if f.Type == zapcore.StringType {
		if s := r.forValue(f.String); s != "" {
			return zap.String(f.Key, s)
		}
	}
	return f
}

// RedactingEncoder rewrites sensitive fields before they reach the wrapped
// encoder. Fields added with With arrive through AddString and AddReflected;
// per-entry fields through EncodeEntry.
type RedactingEncoder struct {
	zapcore.Encoder
	r redactor
}

// NewRedactingEncoder wraps base with the rules in cfg.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	r, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, r: r}, nil
}

func (e *RedactingEncoder) AddString(key, val string) {
	if s := e.r.forKey(key); s != "" {
		val = s
	} else if s := e.r.forValue(val); s != "" {
		val = s
	}
	e.Encoder.AddString(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if s := e.r.forKey(key); s != "" {
		e.Encoder.AddString(key, s)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if !e.r.active() {
		return e.Encoder.EncodeEntry(ent, fields)
	}
	if s := e.r.forValue(ent.Message); s != "" {
		ent.Message = s
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = e.r.field(f)
	}
	return e.Encoder.EncodeEntry(ent, out)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), r: e.r}
}
