// pkg/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"time"

	"blog-api/internal/config"
	"blog-api/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func NewRedisClient(cfg *config.Config, log logger.Logger) (*redis.Client, func(), error) {
	client := redis.NewClient(Options(cfg.Redis))

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", zap.Error(err))
		}
	}

	return client, cleanup, nil
}

func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		PoolTimeout:  time.Duration(cfg.PoolTimeout) * time.Second,
	}
}
