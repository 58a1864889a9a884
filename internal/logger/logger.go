// Package logger provides the structured logging interface used throughout
// hlswalk. Components depend on the Logger interface, never on slog
// directly, so tests can swap in Discard.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger is the narrow logging surface every engine component takes.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	base *slog.Logger
}

// New builds a JSON-handler slog.Logger at the given level name
// (debug/info/warn/error, case-insensitive; unrecognized values fall
// back to info) and wraps it as a Logger.
func New(level string) Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &slogLogger{base: slog.New(handler)}
}

// NewWithHandler wraps an arbitrary slog.Handler, for callers (tests,
// the CLI) that want text output or a buffer instead of JSON-on-stderr.
func NewWithHandler(h slog.Handler) Logger {
	return &slogLogger{base: slog.New(h)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Debugf(format string, v ...interface{}) { l.base.Debug(fmt.Sprintf(format, v...)) }
func (l *slogLogger) Infof(format string, v ...interface{})  { l.base.Info(fmt.Sprintf(format, v...)) }
func (l *slogLogger) Warnf(format string, v ...interface{})  { l.base.Warn(fmt.Sprintf(format, v...)) }
func (l *slogLogger) Errorf(format string, v ...interface{}) { l.base.Error(fmt.Sprintf(format, v...)) }

// discard drops every message. Used by components in tests that don't
// want to assert on log output.
type discard struct{}

// Discard is a Logger that does nothing.
var Discard Logger = discard{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}
