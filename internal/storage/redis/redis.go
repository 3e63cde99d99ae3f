package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"researchflow/internal/config"
	"researchflow/internal/storage"
	"researchflow/internal/types"
)

const (
	itemKeyPrefix = "researchflow:item:"
	runsKey       = "researchflow:runs"
	runsKept      = 100
)

func init() {
	storage.RegisterFactory("redis", New)
}

type RedisStore struct {
	client  *goredis.Client
	itemTTL time.Duration
}

func New(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	addr := config.GetString(cfg.Settings, "addr", "localhost:6379")

	slog.Info("Initializing Redis run store", "addr", addr)

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: config.GetString(cfg.Settings, "password", ""),
		DB:       config.GetInt(cfg.Settings, "db", 0),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		client:  client,
		itemTTL: config.GetDuration(cfg.Settings, "item_ttl", 30*24*time.Hour),
	}, nil
}

func (r *RedisStore) SeenItem(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, itemKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *RedisStore) RememberItem(ctx context.Context, item *types.Item) error {
	if err := r.client.Set(ctx, itemKeyPrefix+item.ID, item.Source, r.itemTTL).Err(); err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.ID, err)
	}
	return nil
}

func (r *RedisStore) RecordRun(ctx context.Context, report *types.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, runsKey, payload)
	pipe.LTrim(ctx, runsKey, 0, runsKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
