package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows
type Limiter interface {
	// Allow records one request for key and reports whether it is within the
	// limit, along with the requests left in the current window.
	Allow(ctx context.Context, key string) (bool, int, error)
	Limit() int
}

// MemoryLimiter is a process-local fixed window limiter
type MemoryLimiter struct {
	mu        sync.Mutex
	clients   map[string]*window
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type window struct {
	count int
	start time.Time
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  per,
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > 2*l.window {
		for k, w := range l.clients {
			if now.Sub(w.start) >= l.window {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.clients[key] = w
	}
	if w.count >= l.limit {
		return false, 0, nil
	}
	w.count++
	return true, l.limit - w.count, nil
}

// Limit implements Limiter
func (l *MemoryLimiter) Limit() int {
	return l.limit
}

// RedisLimiter shares fixed windows across instances through Redis
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis backed limiter. name separates the
// counters of different limiters.
func NewRedisLimiter(client *redis.Client, name string, limit int, per time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "ratelimit:" + name + ":",
		limit:  limit,
		window: per,
	}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, l.prefix+key)
		pipe.ExpireNX(ctx, l.prefix+key, l.window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - count, nil
}

// Limit implements Limiter
func (l *RedisLimiter) Limit() int {
	return l.limit
}

// NewLimiter returns a Redis limiter when a client is available, otherwise
// an in-memory one
func NewLimiter(client *redis.Client, name string, limit int, per time.Duration) Limiter {
	if client != nil {
		return NewRedisLimiter(client, name, limit, per)
	}
	return NewMemoryLimiter(limit, per)
}

// KeyFunc extracts the rate limit key from a request
type KeyFunc func(*gin.Context) string

// ByClientIP keys requests by client IP
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByRouteAndIP keys requests by matched route and client IP, so each
// limited endpoint has its own budget
func ByRouteAndIP(c *gin.Context) string {
	return c.FullPath() + "|" + c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors are logged and the request is let through.
func RateLimit(limiter Limiter, key KeyFunc) gin.HandlerFunc {
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), key(c))
		if err != nil {
			logger.GetGinLogger(c).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			abort(c, http.StatusTooManyRequests, dto.CodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
