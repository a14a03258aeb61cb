package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(2, time.Minute)
	now := time.Now()

	ok, _ := l.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, _ = l.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, retryAt := l.allow("10.0.0.1", now)
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), retryAt)

	ok, _ = l.allow("10.0.0.2", now)
	assert.True(t, ok, "windows are per ip")

	ok, _ = l.allow("10.0.0.1", now.Add(time.Minute+time.Second))
	assert.True(t, ok, "a new window starts after expiry")
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(1, time.Minute).Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
