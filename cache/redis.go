package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to every Redis key.
const DefaultKeyPrefix = "kisan:"

// RedisStore is a Store backed by Redis, for deployments where several
// dashboard instances share one translation cache.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string        // Connection URL, e.g. "redis://localhost:6379/0"
	TTL       time.Duration // Key expiry, 0 keeps keys forever
	KeyPrefix string        // Default "kisan:"
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}

	return &RedisStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.keyPrefix+key, string(value), s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
