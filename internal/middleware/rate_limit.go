package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contractbuilder/pkg/logger"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter implements a fixed window limiter held in process memory
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[string]int
	lastReset time.Time
	rate      int           // requests per window
	window    time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[string]int),
		lastReset: time.Now(),
		rate:      rate,
		window:    window,
	}
}

func (l *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastReset) > l.window {
		l.tokens = make(map[string]int)
		l.lastReset = time.Now()
	}

	count := l.tokens[key]
	if count >= l.rate {
		return false, nil
	}
	l.tokens[key] = count + 1
	return true, nil
}

const rateLimitKeyPrefix = "rate_limit:"

// RedisRateLimiter shares the window counters between instances.
type RedisRateLimiter struct {
	client redis.UniversalClient
	rate   int
	window time.Duration
}

func NewRedisRateLimiter(client redis.UniversalClient, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, rate: rate, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rateLimitKeyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate window: %w", err)
		}
	}
	return count <= int64(l.rate), nil
}

// RateLimit middleware limits requests per client IP. Limiter failures let the request through.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, clientIP)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable", "client_ip", clientIP, "error", err)
			c.Next()
			return
		}
		if !allowed {
			logger.Warn(ctx, "rate limit exceeded", "client_ip", clientIP)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(http.StatusTooManyRequests, "Too many requests, please try again later"))
			return
		}

		c.Next()
	}
}
