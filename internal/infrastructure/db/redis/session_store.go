package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/blog/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps login sessions in Redis.
// Key format: session:<uuid>, value: user id, expiry: the session TTL.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, userID int64, ttl time.Duration) (*domain.Session, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), userID, ttl).Err(); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, sessionKey(id))
	ttlCmd := pipe.TTL(ctx, sessionKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	userID, err := strconv.ParseInt(getCmd.Val(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session get: malformed user id: %w", err)
	}

	session := &domain.Session{ID: id, UserID: userID}
	if ttl := ttlCmd.Val(); ttl > 0 {
		session.ExpiresAt = time.Now().Add(ttl)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
