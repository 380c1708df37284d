package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	store := NewInMemorySessionStore()
	return NewManager(testSecret, accessTTL, refreshTTL, store), store
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	userID, err := manager.Verify(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)
	assert.False(t, store.Has(tokens.RefreshToken), "old token should have been removed")
	assert.True(t, store.Has(refreshed.RefreshToken))
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)
	_, err := manager.Issue(context.Background(), "")
	assert.Error(t, err)
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)
	ctx := context.Background()

	_, err := manager.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	tokens, err := manager.Issue(ctx, "user-1")
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	manager.now = func() time.Time { return time.Now().UTC() }
	tokens, err = manager.Issue(ctx, "user-1")
	require.NoError(t, err)
	manager.Revoke(ctx, tokens.RefreshToken)
	_, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerVerifyRejects(t *testing.T) {
	manager, _ := newTestManager(time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().UTC().Add(10 * time.Minute) }
	_, err = manager.Verify(tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
	manager.now = func() time.Time { return time.Now().UTC() }

	other := NewManager([]byte("another-secret-another-secret-xx"), time.Minute, time.Hour, NewInMemorySessionStore())
	_, err = other.Verify(tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	refreshTyped, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    "user-1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = manager.Verify(refreshTyped)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong type")

	_, err = manager.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUserID(context.Background(), "user-1")
	userID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)
}
