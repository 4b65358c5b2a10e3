package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key, value string) Attr { return slog.String(key, value) }

// Error records err under the "error" key. A nil error is written as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const defaultErrorHint = "run `ddp-sdk logs` for the full engine output"

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Missing fields receive defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logTagged(logger, slog.LevelWarn, msg, eventType, attrs, map[string]string{
		FieldErrorHint: defaultErrorHint,
		FieldImpact:    "the call continued",
	})
}

// ErrorWithContext logs an error carrying event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logTagged(logger, slog.LevelError, msg, eventType, attrs, map[string]string{
		FieldErrorHint: defaultErrorHint,
	})
}

func logTagged(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr, defaults map[string]string) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	if !present[FieldEventType] {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	for _, key := range []string{FieldErrorHint, FieldImpact} {
		if value, ok := defaults[key]; ok && !present[key] {
			attrs = append(attrs, String(key, value))
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
