package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenRevoker_Revoke(t *testing.T) {
	r := NewInMemoryTokenRevoker()
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenRevoker_EntriesExpire(t *testing.T) {
	r := NewInMemoryTokenRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "jti", time.Minute))
	now = now.Add(2 * time.Minute)

	revoked, err := r.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, r.tokens)
}

func TestInMemoryTokenRevoker_Subject(t *testing.T) {
	r := NewInMemoryTokenRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.RevokeSubject(ctx, "campaign-1", time.Hour))

	revoked, err := r.IsSubjectRevoked(ctx, "campaign-1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked, "issued before the cut-off")

	revoked, err = r.IsSubjectRevoked(ctx, "campaign-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked, "issued after the cut-off")

	revoked, err = r.IsSubjectRevoked(ctx, "campaign-2", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCheckRevoked(t *testing.T) {
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "jti-9", Subject: "campaign-9", IssuedAt: jwt.NewNumericDate(issued),
	}}

	assert.NoError(t, CheckRevoked(ctx, nil, claims))

	r := NewInMemoryTokenRevoker()
	assert.NoError(t, CheckRevoked(ctx, r, claims))

	require.NoError(t, r.RevokeSubject(ctx, "campaign-9", time.Hour))
	assert.ErrorIs(t, CheckRevoked(ctx, r, claims), ErrTokenRevoked)

	r = NewInMemoryTokenRevoker()
	require.NoError(t, r.Revoke(ctx, "jti-9", time.Hour))
	assert.ErrorIs(t, CheckRevoked(ctx, r, claims), ErrTokenRevoked)
}
