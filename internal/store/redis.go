package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type RedisStore struct {
	client *redis.Client
}

func (r *RedisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s failed: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration, hasTTL bool) error {
	if hasTTL && ttl <= 0 {
		return fmt.Errorf("set %s: %w", key, ErrInvalidTTL)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	// Expiration 0 means persist without expiry.
	var expiration time.Duration
	if hasTTL {
		expiration = ttl
	}
	if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisStore) SetMulti(ctx context.Context, entries []Entry) error {
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		if e.HasTTL && e.TTL <= 0 {
			return fmt.Errorf("set %s: %w", e.Key, ErrInvalidTTL)
		}
		data, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal %s failed: %w", e.Key, err)
		}
		encoded[i] = data
	}

	// MULTI/EXEC: either every key changes or none does.
	pipe := r.client.TxPipeline()
	for i, e := range entries {
		var expiration time.Duration
		if e.HasTTL {
			expiration = e.TTL
		}
		pipe.Set(ctx, e.Key, encoded[i], expiration)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis multi-set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del failed: %w", err)
	}
	return deleted, nil
}
