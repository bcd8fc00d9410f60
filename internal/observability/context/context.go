package context

import (
	"context"
	"strconv"

	"github.com/smallbiznis/invoicely/internal/callercontext"
)

type requestIDKey struct{}

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request correlation ID or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// CallerFromContext returns the authenticated caller as a log-safe string.
func CallerFromContext(ctx context.Context) string {
	id, ok := callercontext.CallerIDFromContext(ctx)
	if !ok {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
