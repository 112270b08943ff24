// Package logging holds the process-wide structured logger used by the harness.
//
// By default nothing is logged. Call SetLogger (usually with the result of New) to enable output.
// The logger is stored atomically so it can be swapped while the render and window goroutines
// are logging.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LevelFatal is the severity used for errors that abort the process.
// slog has no fatal level, so it sits one step above slog.LevelError.
const LevelFatal = slog.Level(12)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger replaces the active logger. Passing nil restores the silent default.
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// New creates a text logger writing to w that drops records below level.
// Level names are rendered as DEBUG, INFO, WARN, ERROR and FATAL.
//
// Parameters:
//   - w: destination for log output
//   - level: minimum severity to emit
//
// Returns:
//   - *slog.Logger: the configured logger
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelName(l))
				}
			}
			return a
		},
	}))
}

// ParseLevel maps a level name (debug, info, warn, error, fatal) to its slog.Level.
// Matching is case-insensitive.
//
// Parameters:
//   - name: the level name
//
// Returns:
//   - slog.Level: the parsed level
//   - error: an error if the name is not a known level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return slog.LevelDebug, fmt.Errorf("unknown log level %q", name)
	}
}

// LevelName returns the tag printed for a level.
//
// Parameters:
//   - l: the level
//
// Returns:
//   - string: the level tag
func LevelName(l slog.Level) string {
	if l >= LevelFatal {
		return "FATAL"
	}
	return l.String()
}

// Fatal logs msg at LevelFatal. It does not exit; callers decide the exit code.
//
// Parameters:
//   - msg: the log message
//   - args: alternating key/value attributes
func Fatal(msg string, args ...any) {
	Logger().Log(context.Background(), LevelFatal, msg, args...)
}
