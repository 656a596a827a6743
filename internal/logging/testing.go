package logging

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are kept in memory for assertions.
// Entries are recorded unredacted, so AssertNoSecrets checks what callers
// passed in.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger records every entry at Trace and above.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{base: zap.New(core), cfg: NewDefaultConfig()},
		observed: observed,
	}
}

func (t *TestLogger) All() []observer.LoggedEntry { return t.observed.All() }

// FilterMessage returns the entries whose message contains msg.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessageSnippet(msg)
}

func (t *TestLogger) Reset() { t.observed.TakeAll() }

func (t *TestLogger) find(level zapcore.Level, msgContains string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msgContains) {
			out = append(out, e)
		}
	}
	return out
}

func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	if len(t.find(level, msgContains)) == 0 {
		tb.Errorf("expected %v entry containing %q, got %+v", level, msgContains, t.observed.All())
	}
}

func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	if n := len(t.find(level, msgContains)); n > 0 {
		tb.Errorf("unexpected %v entry containing %q (%d times)", level, msgContains, n)
	}
}

// AssertField checks that some entry matching msg carries key=expected.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected interface{}) {
	tb.Helper()
	for _, e := range t.FilterMessage(msg).All() {
		if v, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(v, expected) {
			return
		}
	}
	tb.Errorf("field %q=%v not found in message %q", key, expected, msg)
}

// AssertNoSecrets fails when a message or string field would need the
// default redaction rules: a sensitive key with a raw value, or a value
// matching a sensitive pattern.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	rules := NewDefaultConfig().Redaction
	patterns := make([]*regexp.Regexp, 0, len(rules.Patterns))
	for _, p := range rules.Patterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, e := range t.observed.All() {
		if leaks(e.Message) {
			tb.Errorf("sensitive pattern in message: %q", e.Message)
		}
		for _, f := range e.Context {
			if f.Type != zapcore.StringType {
				continue
			}
			if isSensitiveKey(f.Key, rules.Fields) && f.String != "" && !strings.HasPrefix(f.String, "[REDACTED") {
				tb.Errorf("sensitive field %q not redacted: %q", f.Key, f.String)
			}
			if leaks(f.String) {
				tb.Errorf("sensitive pattern in field %q: %q", f.Key, f.String)
			}
		}
	}
}

func isSensitiveKey(key string, fields []string) bool {
	k := strings.ToLower(key)
	for _, s := range fields {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
