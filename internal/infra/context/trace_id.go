package context

import (
	"context"
)

type contextKey string

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok && traceID != ""
}

// WithTraceID returns a copy of ctx carrying traceID. The ID follows a
// request from the inbound handler to the outbound blob store call.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
