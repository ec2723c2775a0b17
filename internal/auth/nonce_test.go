package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagpilot/attribution-insights/internal/config"
)

func TestMemoryNonceIssueVerify(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	nonce, err := store.Issue(ctx, "session-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	ok, err := store.Verify(ctx, "session-1", nonce)
	require.NoError(t, err)
	assert.True(t, ok)

	// A valid nonce may be reused inside its TTL.
	ok, err = store.Verify(ctx, "session-1", nonce)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "session-1", "forged")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Verify(ctx, "other-session", nonce)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryNonceExpiry(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	nonce, err := store.Issue(ctx, "session-1", -time.Second)
	require.NoError(t, err)

	ok, err := store.Verify(ctx, "session-1", nonce)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryNonceReissueReplaces(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	first, err := store.Issue(ctx, "session-1", time.Hour)
	require.NoError(t, err)
	second, err := store.Issue(ctx, "session-1", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := store.Verify(ctx, "session-1", first)
	require.NoError(t, err)
	assert.False(t, ok, "replaced nonce must stop verifying")

	ok, err = store.Verify(ctx, "session-1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifierCapability(t *testing.T) {
	v := NewVerifier(config.AuthConfig{Enabled: true, MasterKey: "master"})

	assert.True(t, v.HasCapability("master", CapManageAnalytics))
	assert.False(t, v.HasCapability("guess", CapManageAnalytics))
	assert.False(t, v.HasCapability("", CapManageAnalytics))
}

func TestVerifierDisabled(t *testing.T) {
	v := NewVerifier(config.AuthConfig{Enabled: false})

	assert.True(t, v.HasCapability("", CapManageAnalytics))
	assert.True(t, v.HasCapability("anything", CapManageAnalytics))
}
