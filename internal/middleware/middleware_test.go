package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contractbuilder/internal/audit"
	"contractbuilder/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		fromCtx, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, GetRequestID(c)+"|"+fromCtx)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	id := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id+"|"+id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w = serve(router, req)
	assert.Equal(t, "upstream-id", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger())
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuditClient())
	router.GET("/test", func(c *gin.Context) {
		client := audit.ClientFrom(c.Request.Context())
		c.String(http.StatusOK, client.IPAddress+"|"+client.UserAgent)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.9:5555"
	req.Header.Set("User-Agent", "contract-client/1.0")
	w := serve(router, req)
	assert.Equal(t, "192.168.1.9|contract-client/1.0", w.Body.String())
}

func TestRateLimit_Memory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(NewRateLimiter(2, time.Minute)))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		assert.Equal(t, http.StatusOK, serve(router, req).Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.1:1000"
	assert.Equal(t, http.StatusTooManyRequests, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	assert.Equal(t, http.StatusOK, serve(router, req).Code, "separate budget per IP")
}

func TestRedisRateLimiter(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRedisRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	mock.ExpectIncr("rate_limit:10.0.0.1").SetVal(1)
	mock.ExpectExpire("rate_limit:10.0.0.1", time.Minute).SetVal(true)
	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr("rate_limit:10.0.0.1").SetVal(2)
	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr("rate_limit:10.0.0.1").SetVal(3)
	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	mock.ExpectIncr("rate_limit:10.0.0.1").SetErr(errors.New("connection refused"))
	_, err = limiter.Allow(ctx, "10.0.0.1")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(failingLimiter{}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
}
