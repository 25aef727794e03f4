// Package idempotency guards order placement against accidental client
// replays using a Redis key per Idempotency-Key header.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a store whose reservations expire after ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func storageKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// Reserve atomically claims the key. It returns false when the key was
// already used within the TTL window.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, storageKey(key), "exists", s.ttl).Result()
}

// Release frees a previously claimed key so the same placement can be
// retried after a failure.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, storageKey(key)).Err()
}
