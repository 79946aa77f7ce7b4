package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithFieldsAccumulates(t *testing.T) {
	ctx := WithFields(context.Background(), "request_id", "r1")
	ctx = WithFields(ctx, "user_id", "u1")

	assert.Equal(t, []any{"request_id", "r1", "user_id", "u1"}, Fields(ctx))
	assert.Equal(t, []any{"k", "v", "request_id", "r1", "user_id", "u1"}, with(ctx, []any{"k", "v"}))
}

func TestFieldsWithoutBag(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))
	assert.Equal(t, []any{"k", "v"}, with(context.Background(), []any{"k", "v"}))
}
