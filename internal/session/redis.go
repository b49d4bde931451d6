package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobboard/internal/apperr"
)

const keyPrefix = "jobboard:session:"

// RedisStore keeps sessions in Redis with a TTL matching their expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Create stores a session keyed by token hash; the key expires with the session.
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return apperr.ErrUnauthenticated
	}
	if err := r.client.Set(ctx, keyPrefix+s.TokenHash, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return nil
}

// Get returns the session for a token hash.
func (r *RedisStore) Get(ctx context.Context, tokenHash string) (Session, error) {
	payload, err := r.client.Get(ctx, keyPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, apperr.ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, keyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return nil
}
