package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"scrapestream/internal/storage"
)

func init() {
	storage.RegisterFactory("redis", New)
}

// RedisStore keeps cursors in a redis instance, for deployments where the
// process has no durable local disk. Staged writes are committed with one
// pipelined MULTI/EXEC per Flush.
type RedisStore struct {
	client  *redis.Client
	mu      sync.Mutex
	pending map[string]string
}

func New(addr string) (storage.Store, error) {
	slog.Info("Initializing redis storage", "addr", addr)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		client:  client,
		pending: make(map[string]string),
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	if value, ok := r.pending[key]; ok {
		r.mu.Unlock()
		return value, true, nil
	}
	r.mu.Unlock()

	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[key] = value
	return nil
}

func (r *RedisStore) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for key, value := range r.pending {
		pipe.Set(ctx, key, value, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit cursor writes: %w", err)
	}

	r.pending = make(map[string]string)
	return nil
}

func (r *RedisStore) Close(ctx context.Context) error {
	return r.client.Close()
}
