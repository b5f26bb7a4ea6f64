package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/model"
)

// RateLimiter counts requests per key in fixed windows stored in Redis.
type RateLimiter struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRateLimiter(redisURL string) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RateLimiter{redis: client, now: time.Now}, nil
}

func windowKey(key string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/int64(window.Seconds()))
}

// Allow increments the current window and reports whether count is within
// limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	wk := windowKey(key, rl.now(), window)
	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, wk)
	pipe.Expire(ctx, wk, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	count := int(incr.Val())
	return count <= limit, count, nil
}

func (rl *RateLimiter) Close() error {
	return rl.redis.Close()
}

// RateLimit limits each authenticated admin to limit requests per window.
// A nil limiter or a non-positive limit disables it. Redis failures let the
// request through.
func RateLimit(rl *RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	if rl == nil || limit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		key := c.GetString(ContextUserID)
		if key == "" {
			key = c.ClientIP()
		}
		allowed, count, err := rl.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.NewErrorResponse("Rate limit exceeded"))
			return
		}
		c.Next()
	}
}
