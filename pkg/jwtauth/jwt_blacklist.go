package jwtauth

import (
	"context"
	"fmt"
	"time"

	"blog-api/internal/config"
	"blog-api/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	blacklistKey = "cache:%s:jwt:bl:%s"
)

// JwtBlacklist keeps revoked token ids in Redis until the token would have
// expired anyway.
type JwtBlacklist struct {
	RedisClient *redis.Client
	Config      *config.Config
	Logger      logger.Logger
}

func NewJwtBlacklist(
	client *redis.Client,
	config *config.Config,
	log logger.Logger,
) *JwtBlacklist {
	return &JwtBlacklist{
		RedisClient: client,
		Config:      config,
		Logger:      log.With(zap.String("module", "jwt_blacklist")),
	}
}

func (jb *JwtBlacklist) key(jti string) string {
	return fmt.Sprintf(blacklistKey, jb.Config.App.Name, jti)
}

// IsRevoked fails open: a Redis error is logged and the token is treated as
// not revoked.
func (jb *JwtBlacklist) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	exists, err := jb.RedisClient.Exists(ctx, jb.key(jti)).Result()
	if err != nil {
		jb.Logger.Error("blacklist lookup failed", zap.Error(err))
		return false
	}
	return exists > 0
}

// Revoke blacklists jti for the remaining lifetime of the token. Already
// expired tokens need no entry.
func (jb *JwtBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if jti == "" || remaining <= 0 {
		return nil
	}
	if err := jb.RedisClient.Set(ctx, jb.key(jti), 1, remaining).Err(); err != nil {
		jb.Logger.Error("failed to add jti to blacklist", zap.Error(err))
		return fmt.Errorf("jwtauth.Revoke: %w", err)
	}
	return nil
}
