package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks requests over the limit", func(t *testing.T) {
		limiter := NewMemoryLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			ok, remaining, err := limiter.Allow(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok, "request %d", i+1)
			assert.Equal(t, 2-i, remaining)
		}
		ok, remaining, _ := limiter.Allow(ctx, "a")
		assert.False(t, ok)
		assert.Zero(t, remaining)
	})

	t.Run("separate budgets per key", func(t *testing.T) {
		limiter := NewMemoryLimiter(1, time.Minute)
		ok, _, _ := limiter.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _, _ = limiter.Allow(ctx, "a")
		assert.False(t, ok)
		ok, _, _ = limiter.Allow(ctx, "b")
		assert.True(t, ok)
	})

	t.Run("window resets", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		limiter := NewMemoryLimiter(1, time.Minute)
		limiter.now = func() time.Time { return now }

		ok, _, _ := limiter.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _, _ = limiter.Allow(ctx, "a")
		assert.False(t, ok)

		now = now.Add(time.Minute)
		ok, _, _ = limiter.Allow(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("sweeps stale windows", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		limiter := NewMemoryLimiter(5, time.Minute)
		limiter.now = func() time.Time { return now }
		limiter.Allow(ctx, "a")
		limiter.Allow(ctx, "b")

		now = now.Add(3 * time.Minute)
		limiter.Allow(ctx, "c")
		assert.Len(t, limiter.clients, 1)
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewMemoryLimiter(100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _, _ := limiter.Allow(ctx, "shared"); ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestNewLimiter_WithoutRedis(t *testing.T) {
	assert.IsType(t, &MemoryLimiter{}, NewLimiter(nil, "auth", 5, time.Minute))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("redis down")
}

func (failingLimiter) Limit() int { return 1 }

func TestRateLimit(t *testing.T) {
	t.Run("sets headers and rejects over budget", func(t *testing.T) {
		router := okRouter(RequestID(), RateLimit(NewMemoryLimiter(2, time.Minute), ByClientIP))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, dto.CodeRateLimited, decodeError(t, w).Code)
	})

	t.Run("route keys are separate", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimit(NewMemoryLimiter(1, time.Minute), ByRouteAndIP))
		router.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })

		for _, path := range []string{"/a", "/b"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/a", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("limiter errors let requests through", func(t *testing.T) {
		router := okRouter(RateLimit(failingLimiter{}, ByClientIP))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
