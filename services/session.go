package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps login sessions in redis. The key TTL is the session
// lifetime: a missing key and an expired session are the same thing.
type SessionStore struct {
	cli *redis.Client
	ttl time.Duration
}

func NewSessionStore(cli *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{cli: cli, ttl: ttl}
}

func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create issues a new opaque session token for the user.
func (s *SessionStore) Create(ctx context.Context, userID int) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.cli.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// UserID resolves a session token to the logged-in user's id.
func (s *SessionStore) UserID(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}
	val, err := s.cli.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, ErrSessionNotFound
	}
	return id, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.cli.Del(ctx, sessionKeyPrefix+token).Err()
}
