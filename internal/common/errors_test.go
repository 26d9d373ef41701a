package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	decorated := ErrNotFound.WithDetails("User not found with this ID.")

	assert.Equal(t, "User not found with this ID.", decorated.Details)
	assert.Nil(t, ErrNotFound.Details, "sentinel must stay untouched")
	assert.Equal(t, ErrNotFound.StatusCode, decorated.StatusCode)
	assert.Equal(t, ErrNotFound.Code, decorated.Code)
}

func TestErrorsIsMatchesDecoratedSentinels(t *testing.T) {
	decorated := ErrConflict.WithDetails("email already taken")

	assert.True(t, errors.Is(decorated, ErrConflict))
	assert.False(t, errors.Is(decorated, ErrNotFound))

	wrapped := fmt.Errorf("creating user: %w", decorated)
	assert.True(t, errors.Is(wrapped, ErrConflict))
}

func TestIsAPIError(t *testing.T) {
	apiErr, ok := IsAPIError(ErrForbidden.WithDetails("no"))
	assert.True(t, ok)
	assert.Equal(t, 403, apiErr.StatusCode)

	wrapped := fmt.Errorf("outer: %w", ErrBadRequest)
	apiErr, ok = IsAPIError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)

	_, ok = IsAPIError(errors.New("plain error"))
	assert.False(t, ok)
}
