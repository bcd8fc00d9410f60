package callercontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallerIDRoundTrip(t *testing.T) {
	ctx := WithCallerID(context.Background(), 42)

	id, ok := CallerIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestCallerIDMissingOrZero(t *testing.T) {
	_, ok := CallerIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = CallerIDFromContext(WithCallerID(context.Background(), 0))
	assert.False(t, ok)
}
