package logging

import "go.uber.org/zap/zapcore"

// TraceLevel is one step below Debug, for per-keystroke and per-fetch detail.
const TraceLevel = zapcore.DebugLevel - 1

// LevelFromString parses "trace" plus every name zapcore understands.
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}
