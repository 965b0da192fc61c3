package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bl := NewInMemoryTokenBlacklist()
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Hour))

	revoked, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(time.Hour)
	revoked, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry expires with the token")
	assert.Empty(t, bl.entries)
}

func TestInMemoryTokenBlacklist_IgnoresExpiredTokens(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	require.NoError(t, bl.AddToBlacklist(context.Background(), "jti", 0))
	assert.Empty(t, bl.entries)
}
