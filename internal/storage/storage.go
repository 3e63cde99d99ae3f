package storage

import (
	"context"
	"fmt"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

// Store is the optional run-history backend: it remembers item IDs across
// runs for dedupe and records each run's report.
type Store interface {
	SeenItem(ctx context.Context, id string) (bool, error)
	RememberItem(ctx context.Context, item *types.Item) error
	RecordRun(ctx context.Context, report *types.RunReport) error
	Close() error
}

var factoryFuncs = map[string]func(context.Context, config.StorageConfig) (Store, error){}

func RegisterFactory(storageType string, fn func(context.Context, config.StorageConfig) (Store, error)) {
	factoryFuncs[storageType] = fn
}

// Open builds the store named by cfg.Type. A disabled config yields a nil
// store, which callers treat as "no history".
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	fn, exists := factoryFuncs[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return fn(ctx, cfg)
}
