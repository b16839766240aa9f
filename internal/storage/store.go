package storage

import (
	"context"
	"fmt"

	"scrapestream/internal/config"
)

// Store is the persistent keyspace holding per-source cursors. Set only
// stages a write; Flush commits everything staged since the last Flush.
// A batch of dedup decisions counts as delivered only once the matching
// Flush returns.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

var factoryFuncs = map[string]func(string) (Store, error){}

func RegisterFactory(storageType string, fn func(string) (Store, error)) {
	factoryFuncs[storageType] = fn
}

func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "sqlite"
	}

	fn, exists := factoryFuncs[storageType]
	if !exists {
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}

	return fn(cfg.Path)
}
