package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags machine-readable event categories in structured logs.
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator-facing suggestion alongside an error.
	FieldErrorHint = "error_hint"
	// FieldPath is the standardized key for the file a log line concerns.
	FieldPath = "path"
	// FieldChecker is the standardized key for checker identifiers.
	FieldChecker = "checker"
	// FieldChannel is the standardized key for notification channel identifiers.
	FieldChannel = "channel"
	// FieldIntegration is the standardized key for integration identifiers.
	FieldIntegration = "integration"
	// FieldRunID is the standardized key for per-dispatch correlation identifiers.
	FieldRunID = "run_id"
	// FieldGeneration is the standardized key for debounce generation counters.
	FieldGeneration = "generation"
	// FieldSeverity is the standardized key for finding severities.
	FieldSeverity = "severity"
)

type contextKey int

const (
	runIDKey contextKey = iota
	pathKey
)

// WithRunID stores a dispatch correlation id on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the dispatch correlation id, if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithPath stores the file path a dispatch run concerns on the context.
func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathKey, path)
}

// PathFromContext extracts the dispatch file path, if present.
func PathFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(pathKey).(string)
	return path, ok && path != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if path, ok := PathFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPath, path))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
