package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocklist_AddAndCheck(t *testing.T) {
	service := NewInMemoryBlocklistService(time.Minute)
	ctx := context.Background()

	blocked, err := service.IsBlocklisted(ctx, "unknown-jti")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, service.AddToBlocklist(ctx, "jti-1", time.Now().Add(time.Hour)))

	blocked, err = service.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = service.IsBlocklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blocked, "entries are per-jti, not global")
}

func TestBlocklist_EntriesExpireWithTheirTokens(t *testing.T) {
	service := NewInMemoryBlocklistService(time.Minute)
	ctx := context.Background()

	require.NoError(t, service.AddToBlocklist(ctx, "short-lived", time.Now().Add(30*time.Millisecond)))

	blocked, err := service.IsBlocklisted(ctx, "short-lived")
	require.NoError(t, err)
	assert.True(t, blocked)

	time.Sleep(60 * time.Millisecond)

	blocked, err = service.IsBlocklisted(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, blocked, "an expired token needs no blocklist entry")
}

func TestBlocklist_AlreadyExpiredTokenIsNoOp(t *testing.T) {
	service := NewInMemoryBlocklistService(time.Minute)
	ctx := context.Background()

	require.NoError(t, service.AddToBlocklist(ctx, "stale", time.Now().Add(-time.Minute)))

	blocked, err := service.IsBlocklisted(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, blocked)
}
