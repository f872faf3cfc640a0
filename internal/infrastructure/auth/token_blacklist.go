package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes session tokens before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes a single session by its JTI. ttl should be the
	// remaining lifetime of the token.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a session JTI has been revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// RevokeSubject invalidates every session of a subject issued before now,
	// used when an account is disabled, suspended or has its password reset.
	RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error

	// IsSubjectRevoked reports whether a token issued at issuedAt predates
	// the subject's revocation. Tokens with one second precision issued in
	// the same second as the revocation stay valid.
	IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

const blacklistKeyPrefix = "session:revoked:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: blacklistKeyPrefix,
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) subjectKey(subject string) string {
	return b.keyPrefix + "subject:" + subject
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// RevokeSubject stores the revocation time for the subject
func (b *RedisTokenBlacklist) RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error {
	err := b.client.Set(ctx, b.subjectKey(subject), time.Now().Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke subject sessions: %w", err)
	}
	return nil
}

// IsSubjectRevoked compares the token issue time with the stored revocation
func (b *RedisTokenBlacklist) IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.subjectKey(subject)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subject revocation: %w", err)
	}

	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() < revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory. It is used
// when Redis is disabled and only suits a single instance.
type InMemoryTokenBlacklist struct {
	mu       sync.Mutex
	jtis     map[string]time.Time // JTI -> expiration
	subjects map[string]revocation
}

type revocation struct {
	at        time.Time
	expiresAt time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:     make(map[string]time.Time),
		subjects: make(map[string]revocation),
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and not expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtis[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

// RevokeSubject records the revocation time for the subject
func (b *InMemoryTokenBlacklist) RevokeSubject(_ context.Context, subject string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.subjects[subject] = revocation{at: now, expiresAt: now.Add(ttl)}
	return nil
}

// IsSubjectRevoked compares the token issue time with the revocation
func (b *InMemoryTokenBlacklist) IsSubjectRevoked(_ context.Context, subject string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rev, exists := b.subjects[subject]
	if !exists {
		return false, nil
	}
	if time.Now().After(rev.expiresAt) {
		delete(b.subjects, subject)
		return false, nil
	}
	return issuedAt.Unix() < rev.at.Unix(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
