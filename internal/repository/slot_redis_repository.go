package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlotRepository stores slots as plain string values under a key prefix.
type RedisSlotRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSlotRepository constructs the repository. A zero ttl keeps slots until removed.
func NewRedisSlotRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisSlotRepository {
	return &RedisSlotRepository{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves the raw payload.
func (r *RedisSlotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, slotEmpty(key)
	}
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, slotEmpty(key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set stores the payload, refreshing the expiry when one is configured.
func (r *RedisSlotRepository) Set(ctx context.Context, key string, payload []byte) error {
	if r.client == nil {
		return errors.New("redis slot repository has no client")
	}
	if err := r.client.Set(ctx, r.key(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the slot.
func (r *RedisSlotRepository) Remove(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisSlotRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + key
}
