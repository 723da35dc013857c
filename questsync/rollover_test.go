package questsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollover(t *testing.T) {
	_, err := NewRollover(time.UTC, "not a schedule", func(context.Context) {})
	assert.Error(t, err)

	r, err := NewRollover(time.UTC, DefaultRolloverSchedule, func(context.Context) {})
	require.NoError(t, err)
	assert.True(t, r.Next().IsZero())

	r.Start(context.Background())
	next := r.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))

	r.Stop()
	r.Stop()
}
