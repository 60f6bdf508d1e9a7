package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/utils"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// slidingWindow trims the window, then admits the request if fewer than
// limit members remain.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ttl = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

local count = redis.call('ZCARD', key)
if count >= limit then
    return 0
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, window_ttl)
return 1
`)

// RateLimiterMiddleware limits requests per client IP with a Redis sorted
// set per scope.
type RateLimiterMiddleware struct {
	RedisClient *redis.Client
	KeyPrefix   string
	Logger      logger.Logger
	Now         func() time.Time
}

func NewRateLimiterMiddleware(
	redisClient *redis.Client,
	config *config.Config,
	log logger.Logger,
) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		RedisClient: redisClient,
		KeyPrefix:   "cache:" + config.App.Name + ":mid:rl",
		Logger:      log.With(zap.String("module", "rate_limit")),
		Now:         time.Now,
	}
}

// Handle fails open: if Redis cannot answer, the request proceeds.
func (rl *RateLimiterMiddleware) Handle(scope string, limit int64, window time.Duration) gin.HandlerFunc {
	ttlSeconds := int64((window + time.Second - 1) / time.Second)

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s:%s", rl.KeyPrefix, scope, c.ClientIP())
		now := rl.Now().UnixMilli()
		windowStart := now - window.Milliseconds()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		res, err := slidingWindow.Run(ctx, rl.RedisClient, []string{key},
			now, windowStart, limit, ttlSeconds, uuid.NewString()).Int64()
		if err != nil {
			rl.Logger.Error("redis rate limiter error",
				zap.String("key", key),
				zap.Int64("limit", limit),
				zap.Duration("window", window),
				zap.Error(err))
			c.Next()
			return
		}

		if res == 0 {
			utils.AbortWithMessage(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
