package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenStore(client, time.Hour), mr
}

func signedJWT(t *testing.T, expiresAt time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token := signedJWT(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, "session-1", token))

	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestLoad_MissingToken(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Load(context.Background(), "never-saved")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestLoad_ExpiredJWTDropped(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	expired := signedJWT(t, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(ctx, "session-1", expired))

	_, err := store.Load(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNoToken)

	// The stale credential is gone from the store, not just hidden.
	assert.False(t, mr.Exists("storefront:token:session-1"))
}

func TestLoad_OpaqueTokenPassesThrough(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", "opaque-api-key-xyz"))

	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "opaque-api-key-xyz", got)
}

func TestLoad_JWTWithoutExpKept(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "session-1", signed))

	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, signed, got)
}

func TestClear(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", "tok"))
	require.NoError(t, store.Clear(ctx, "session-1"))

	_, err := store.Load(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNoToken)

	// Clearing an absent token is a no-op.
	assert.NoError(t, store.Clear(ctx, "session-1"))
}

func TestSessionsAreIsolated(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-a", "token-a"))
	require.NoError(t, store.Save(ctx, "session-b", "token-b"))

	got, err := store.Load(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got)

	require.NoError(t, store.Clear(ctx, "session-a"))
	got, err = store.Load(ctx, "session-b")
	require.NoError(t, err)
	assert.Equal(t, "token-b", got)
}
