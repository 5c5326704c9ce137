package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

// RedisStore implements SessionStore on Redis. Keys are namespaced so several
// sessions can share one server: storefront:<namespace>:<key>.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{
		client:    client,
		namespace: namespace,
	}
}

// Get returns the value stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Set stores value under key without expiry.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Commit applies the batch inside MULTI/EXEC.
func (r *RedisStore) Commit(ctx context.Context, batch Batch) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range batch.Puts {
			pipe.Set(ctx, r.redisKey(key), value, 0)
		}
		for _, key := range batch.Deletes {
			pipe.Del(ctx, r.redisKey(key))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis transaction failed: %w", err)
	}
	return nil
}

// CheckConnectivity pings the server.
func (r *RedisStore) CheckConnectivity(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return sferrors.NewStoreUnavailable("redis ping failed", err)
	}
	return nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("storefront:%s:%s", r.namespace, key)
}

// Verify RedisStore implements SessionStore interface.
var _ SessionStore = (*RedisStore)(nil)
