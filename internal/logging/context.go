package logging

import (
	"context"
	"log/slog"

	"ddpsdk/internal/services"
)

const (
	// FieldComponent names the package that emitted the line.
	FieldComponent = "component"
	// FieldMode is the key for the engine mode (process or json).
	FieldMode = "mode"
	// FieldInvocationID identifies a single engine invocation.
	FieldInvocationID = "invocation_id"
	// FieldCorrelationID carries a caller-supplied request ID.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what a warning means for the caller.
	FieldImpact = "impact"
)

// ContextFields returns the mode and request ID stored on ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if mode, ok := services.ModeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMode, mode))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext adds ContextFields(ctx) to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return slog.New(logger.Handler().WithAttrs(fields))
}
