package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or a logger over
// the slog default tagged "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return newLogger(slog.Default(), "unknown")
}

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware tags the request logger with the request id.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the recurring domain events with a fixed set of fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogRowsIngested logs a stored ingest batch for one dimension. ref names
// the sync target when known.
func (sl *StructuredLogger) LogRowsIngested(ctx context.Context, dimension string, rows int, ref string) {
	fields := NewFields().
		WithQuery(dimension, "", "").
		WithOperation(OpCreate).
		ToSlice()
	fields = append(fields, FieldRows, rows)
	if ref != "" {
		fields = append(fields, FieldSheetsRef, ref)
	}
	sl.logger.InfoContext(ctx, "Rows ingested", fields...)
}

// LogViewComputed logs a computed dashboard view at debug level.
func (sl *StructuredLogger) LogViewComputed(ctx context.Context, view, metric, dimension string, rows int, cached bool) {
	fields := NewFields().
		WithView(view, metric).
		WithQuery(dimension, "", "").
		WithOperation(OpCompute).
		ToSlice()
	fields = append(fields, FieldRows, rows, FieldCached, cached)
	sl.logger.DebugContext(ctx, "View computed", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
