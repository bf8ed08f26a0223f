package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEntityAllowed(t *testing.T) {
	ctx := context.WithValue(context.Background(), BusinessUnitsKey, []string{"Treasury HQ", "Plant A"})
	ctx = context.WithValue(ctx, EntityIDsKey, []string{"E-001"})

	assert.True(t, IsEntityAllowed(ctx, "Plant A"))
	assert.True(t, IsEntityAllowed(ctx, " plant a "), "matching ignores case and padding")
	assert.True(t, IsEntityAllowed(ctx, "e-001"), "entity ids match too")
	assert.False(t, IsEntityAllowed(ctx, "Plant B"))
	assert.False(t, IsEntityAllowed(context.Background(), "Plant A"), "empty scope allows nothing")
}

func TestGetUserIDFromCtx(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "u-42")
	assert.Equal(t, "u-42", GetUserIDFromCtx(ctx))
	assert.Equal(t, "", GetUserIDFromCtx(context.Background()))
}
