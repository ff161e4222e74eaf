package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"expense-tracker/internal/logger"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter keyed by client IP and stored in
// Redis. With no client it lets every request through.
type RateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

// NewRedisRateLimiter connects to addr. An empty addr or a failed ping yields
// a fail-open limiter so the API stays available without Redis.
func NewRedisRateLimiter(addr, password string, db, maxRequests int, window time.Duration) *RateLimiter {
	l := &RateLimiter{maxRequests: maxRequests, window: window}
	if addr == "" {
		return l
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", addr, "error", err)
		_ = client.Close()
		return l
	}

	l.client = client
	return l
}

// Enabled reports whether requests are actually counted.
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.client != nil && l.maxRequests > 0
}

// Close releases the Redis connection.
func (l *RateLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

// Middleware counts requests with INCR/EXPIRE.
// key format: rl:<window_seconds>:<ip>
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		endpoint := routeLabel(c)
		RLRequests.WithLabelValues(endpoint).Inc()

		key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + c.ClientIP()
		ctx := c.Request.Context()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// fail-open on Redis errors
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.client.Expire(ctx, key, l.window)
		}

		remaining := int64(l.maxRequests) - val
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if val > int64(l.maxRequests) {
			RLBlocked.WithLabelValues(endpoint).Inc()
			if ttl, err := l.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			}
			util.Error(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
