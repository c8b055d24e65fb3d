package common

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request ID, minting one when absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if rid := RequestIDFromContext(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.NewString()
	return WithRequestID(ctx, rid), rid
}
