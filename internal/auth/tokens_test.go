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

	"github.com/odyssey-erp/taskhub/internal/shared"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokens(t *testing.T) (*TokenManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tm, err := NewTokenManager(TokenConfig{
		Secret:      testSecret,
		Issuer:      "taskhub-test",
		TTL:         8 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}, NewRedisRevocationStore(client))
	require.NoError(t, err)
	return tm, mr
}

func TestIssueAndVerify(t *testing.T) {
	tm, _ := newTestTokens(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return now }

	short, err := tm.Issue(42, "a@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, now.Add(8*time.Hour), short.ExpiresAt)
	assert.False(t, short.Persistent)

	long, err := tm.Issue(42, "a@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), long.ExpiresAt)
	assert.True(t, long.Persistent)
	assert.NotEqual(t, short.ID, long.ID)

	id, err := tm.VerifyToken(context.Background(), short.Raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	tm, _ := newTestTokens(t)
	issued, err := tm.Issue(1, "a@example.com", false)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
	_, err = tm.VerifyToken(context.Background(), issued.Raw)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
	tm.now = time.Now

	other, err := NewTokenManager(TokenConfig{Secret: []byte("another-secret-of-32-bytes-long!"), Issuer: "taskhub-test", TTL: time.Hour}, nil)
	require.NoError(t, err)
	foreign, err := other.Issue(1, "a@example.com", false)
	require.NoError(t, err)
	_, err = tm.VerifyToken(context.Background(), foreign.Raw)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)

	wrongIssuer, err := NewTokenManager(TokenConfig{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour}, nil)
	require.NoError(t, err)
	tok, err := wrongIssuer.Issue(1, "a@example.com", false)
	require.NoError(t, err)
	_, err = tm.VerifyToken(context.Background(), tok.Raw)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)

	_, err = tm.VerifyToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyRejectsOtherSigningMethods(t *testing.T) {
	tm, _ := newTestTokens(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "x",
		Subject:   "1",
		Issuer:    "taskhub-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = tm.VerifyToken(context.Background(), raw)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestRevokeDenylistsUntilExpiry(t *testing.T) {
	tm, mr := newTestTokens(t)
	issued, err := tm.Issue(5, "a@example.com", false)
	require.NoError(t, err)

	_, err = tm.Revoke(context.Background(), issued.Raw)
	require.NoError(t, err)

	_, err = tm.VerifyToken(context.Background(), issued.Raw)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)

	key := revokedKeyPrefix + issued.ID
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.LessOrEqual(t, ttl, 8*time.Hour)
	assert.Greater(t, ttl, 7*time.Hour)
}

func TestNewTokenManagerValidatesConfig(t *testing.T) {
	_, err := NewTokenManager(TokenConfig{Secret: []byte("short"), TTL: time.Hour}, nil)
	assert.Error(t, err)
	_, err = NewTokenManager(TokenConfig{Secret: testSecret}, nil)
	assert.Error(t, err)
}
