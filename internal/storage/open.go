package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/storefront/internal/config"
)

// Open creates the session store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.SessionConfig) (SessionStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := NewRedisStore(client, cfg.Redis.Namespace)
		if err := store.CheckConnectivity(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
