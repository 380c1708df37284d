package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySessionStorePrunesExpired(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, Session{RefreshToken: "old", UserID: "u1", ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(time.Hour)
	require.NoError(t, store.Save(ctx, Session{RefreshToken: "new", UserID: "u1", ExpiresAt: now.Add(time.Minute)}))

	assert.False(t, store.Has("old"))
	session, err := store.Find(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)

	assert.ErrorIs(t, store.Delete(ctx, "old"), ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "new"))
}
