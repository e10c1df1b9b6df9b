package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across tsapi.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldInvocation = "invocation_id"
	FieldProject    = "project"
	FieldTask       = "task"
	FieldTarget     = "target"

	// Components
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldShape     = "shape"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Status
	FieldState = "state"

	// Files and paths
	FieldFile  = "file"
	FieldFiles = "files"
	FieldDir   = "dir"

	// Toolchain
	FieldVersion = "version"
)

// Context keys for propagating logging context
type contextKey string

const (
	invocationIDKey contextKey = "logger_invocation_id"
	taskKey         contextKey = "logger_task"
)

// WithInvocationID adds a build invocation ID to the context for logging
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

// WithTask adds the executing task name to the context for logging
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey, task)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if id, ok := ctx.Value(invocationIDKey).(string); ok && id != "" {
		fields = append(fields, FieldInvocation, id)
	}
	if task, ok := ctx.Value(taskKey).(string); ok && task != "" {
		fields = append(fields, FieldTask, task)
	}

	return fields
}

// LoggerFromContext returns the given logger with fields extracted from context.
// A nil base falls back to the global Logger.
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Resolver struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewResolver() *Resolver {
//	    return &Resolver{log: logger.ComponentLogger("targets")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
