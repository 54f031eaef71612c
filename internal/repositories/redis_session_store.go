package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skillswap/backend/internal/auth"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps refresh tokens in Redis, letting Redis expire them.
type RedisSessionStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisSessionStore constructs a session store using client.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

// Save stores the session with a TTL matching its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, session auth.Session) error {
	ttl := sessionTTL(session.ExpiresAt, s.now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.RefreshToken), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Find loads a session by refresh token.
func (s *RedisSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(refreshToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("load session: %w", err)
	}

	var session auth.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return auth.Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.RefreshToken = refreshToken
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Delete removes a session by refresh token.
func (s *RedisSessionStore) Delete(ctx context.Context, refreshToken string) error {
	removed, err := s.client.Del(ctx, sessionKey(refreshToken)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if removed == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func sessionKey(refreshToken string) string {
	return sessionKeyPrefix + refreshToken
}

// sessionTTL rounds up to whole milliseconds, the finest TTL Redis accepts.
func sessionTTL(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl.Truncate(time.Millisecond) + time.Millisecond
}

var _ auth.SessionStore = (*RedisSessionStore)(nil)
