package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker invalidates tokens before they expire. Single tokens are
// revoked by jti (admin logout); whole subjects by cut-off time, which
// is how every organizer token of a cancelled campaign is killed.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error
	IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

// CheckRevoked returns ErrTokenRevoked when claims were revoked by jti or subject
func CheckRevoked(ctx context.Context, r TokenRevoker, claims *Claims) error {
	if r == nil {
		return nil
	}
	revoked, err := r.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	revoked, err = r.IsSubjectRevoked(ctx, claims.Subject, issuedAt)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// RedisTokenRevoker stores revocations in Redis with TTLs
type RedisTokenRevoker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenRevoker creates a revoker on an existing client
func NewRedisTokenRevoker(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client, keyPrefix: "token:revoked:"}
}

func (r *RedisTokenRevoker) jtiKey(jti string) string {
	return r.keyPrefix + "jti:" + jti
}

func (r *RedisTokenRevoker) subjectKey(subject string) string {
	return r.keyPrefix + "sub:" + subject
}

// Revoke marks a single token revoked
func (r *RedisTokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks a single token
func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeSubject revokes every token for subject issued up to now
func (r *RedisTokenRevoker) RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error {
	cutoff := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.client.Set(ctx, r.subjectKey(subject), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("revoke subject: %w", err)
	}
	return nil
}

// IsSubjectRevoked reports whether a token issued at issuedAt predates the subject cut-off
func (r *RedisTokenRevoker) IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, r.subjectKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check subject revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cut-off: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenRevoker = (*RedisTokenRevoker)(nil)

// InMemoryTokenRevoker is the single-instance fallback used when Redis
// is not configured.
type InMemoryTokenRevoker struct {
	mu       sync.Mutex
	tokens   map[string]time.Time // jti -> expiry
	subjects map[string]time.Time // subject -> cut-off
	now      func() time.Time
}

// NewInMemoryTokenRevoker creates an empty in-memory revoker
func NewInMemoryTokenRevoker() *InMemoryTokenRevoker {
	return &InMemoryTokenRevoker{
		tokens:   make(map[string]time.Time),
		subjects: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Revoke marks a single token revoked until ttl elapses
func (r *InMemoryTokenRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[jti] = r.now().Add(ttl)
	return nil
}

// IsRevoked checks a single token, dropping expired entries
func (r *InMemoryTokenRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.tokens[jti]
	if !ok {
		return false, nil
	}
	if r.now().After(exp) {
		delete(r.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeSubject revokes every token for subject issued up to now
func (r *InMemoryTokenRevoker) RevokeSubject(_ context.Context, subject string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[subject] = r.now()
	return nil
}

// IsSubjectRevoked reports whether issuedAt is at or before the cut-off
func (r *InMemoryTokenRevoker) IsSubjectRevoked(_ context.Context, subject string, issuedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff, ok := r.subjects[subject]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}

var _ TokenRevoker = (*InMemoryTokenRevoker)(nil)
