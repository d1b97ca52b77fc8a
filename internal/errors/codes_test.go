package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefError_Error(t *testing.T) {
	assert.Equal(t, "[INVALID_ARGUMENT] user id is required", InvalidArgument("user id is required").Error())

	err := StorageFailed("failed to load preference", context.DeadlineExceeded)
	assert.Equal(t, "[STORAGE_FAILED] failed to load preference: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("missing"))

	assert.True(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(err, ErrCodeInvalidArgument))
	assert.False(t, IsCode(context.Canceled, ErrCodeNotFound))
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeCacheUnavailable, GetCodeFromError(CacheUnavailable("redis down", nil), ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(context.Canceled, ErrCodeInternal))
}

func TestWithContext(t *testing.T) {
	err := InvalidArgument("bad key").WithContext("key", "").WithContext("user_id", "alice")
	assert.Equal(t, map[string]any{"key": "", "user_id": "alice"}, err.Context)
}
