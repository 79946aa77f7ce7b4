package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestNewTimeoutContextOutlivesParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))
	ctx, done := NewTimeoutContext(parent, time.Minute)
	defer done()

	cancel()
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "v", ctx.Value(ctxKey{}))
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}

func TestNewTimeoutContextWithoutTimeout(t *testing.T) {
	ctx, done := NewTimeoutContext(context.Background(), 0)
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestGetHistogramVecReusesRegistered(t *testing.T) {
	a, err := GetHistogramVec("util_test_seconds", "status")
	require.NoError(t, err)
	b, err := GetHistogramVec("util_test_seconds", "status")
	require.NoError(t, err)
	assert.Same(t, a, b)
}
