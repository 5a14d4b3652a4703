package redisdb

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"news-assistant/internal/config"
)

func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Connect creates a client and verifies the server answers
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := NewClient(cfg)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}
