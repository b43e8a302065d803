package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/booker/internal/model"
)

// Every key is namespaced, and every call gets its own deadline so a stalled
// Redis cannot hold a request forever.
const (
	keyPrefix = "booker:session:"
	opTimeout = 3 * time.Second
)

// RedisStore keeps sessions in Redis as JSON with a TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed store. The caller owns the returned
// store and must Close it.
func NewRedisStore(addr, password string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}))
}

// NewRedisStoreWithClient wraps an existing client, for example one pointed
// at miniredis in tests. Close closes client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get loads the user under id. A missing key is ok=false, not an error.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.SessionUser, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: redis get: %w", err)
	}

	var u model.SessionUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, false, fmt.Errorf("session: decoding %s: %w", id, err)
	}
	return &u, true, nil
}

// Set writes user under id with Redis expiring the key after ttl.
func (s *RedisStore) Set(ctx context.Context, id string, user *model.SessionUser, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encoding user: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.client.Set(ctx, keyPrefix+id, raw, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Delete removes id. Deleting a missing key succeeds.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity; used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
