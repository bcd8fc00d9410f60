// Package callercontext carries the authenticated caller through a request.
package callercontext

import "context"

// CallerContextKey is the request context key for the authenticated caller ID.
type CallerContextKey struct{}

// WithCallerID stores the caller ID in the context.
func WithCallerID(ctx context.Context, callerID int64) context.Context {
	return context.WithValue(ctx, CallerContextKey{}, callerID)
}

// CallerIDFromContext returns the caller ID from context, if set.
func CallerIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(CallerContextKey{}).(int64)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
