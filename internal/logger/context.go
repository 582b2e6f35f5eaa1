package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	ingestIDKey  contextKey = "ingest_id"
	loggerKey    contextKey = "logger"
)

// GenerateRequestID creates a new unique request ID
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithIngestID tags everything logged for one receipt ingestion. The
// context's logger, if any, gains the id as an attribute.
func WithIngestID(ctx context.Context, ingestID string) context.Context {
	ctx = context.WithValue(ctx, ingestIDKey, ingestID)
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		ctx = WithLogger(ctx, l.With("ingest_id", ingestID))
	}
	return ctx
}

// IngestIDFromContext extracts the ingest ID from context
func IngestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ingestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores a logger instance in context
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns a logger from context, or the default logger.
// The returned logger always includes the request ID if present.
func FromContext(ctx context.Context) *slog.Logger {
	// Try to get logger from context first
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}

	// Fall back to default logger with the ids available
	l := Default()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		l = l.With("request_id", requestID)
	}
	if ingestID := IngestIDFromContext(ctx); ingestID != "" {
		l = l.With("ingest_id", ingestID)
	}
	return l
}

// Ctx is a convenience alias for FromContext
func Ctx(ctx context.Context) *slog.Logger {
	return FromContext(ctx)
}
