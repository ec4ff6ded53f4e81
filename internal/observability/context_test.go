package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	ctx = WithCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))

	// A foreign key with the same underlying string does not collide.
	other := context.WithValue(context.Background(), "correlation_id", "nope")
	assert.Empty(t, CorrelationIDFromContext(other))
}
