package correlation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	ctx := WithID(context.Background(), "01HZX0000000000000000000AA")

	_, id := EnsureCorrelationID(ctx)

	assert.Equal(t, "01HZX0000000000000000000AA", id)
}

func TestNewIDsIncrease(t *testing.T) {
	first := NewID()
	second := NewID()

	assert.Less(t, first, second)
}

func TestIssuedAt(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	assert.Equal(t, id, FromContext(ctx))

	at, ok := IssuedAt(id)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), at, time.Minute)

	_, ok = IssuedAt("not-a-ulid")
	assert.False(t, ok)
}
