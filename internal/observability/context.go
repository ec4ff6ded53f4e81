package observability

import (
	"context"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
)

// WithCorrelationID adds a correlation ID to the context. HTTP requests take it
// from the X-Correlation-ID header or the chi request ID; it travels into outbox
// event metadata.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}
