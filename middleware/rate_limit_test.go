package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 10, Window: time.Minute})

	assert.Equal(t, 10, rl.config.Requests)
	assert.NotNil(t, rl.config.KeyFunc)
	assert.Equal(t, "errors.rate_limited", rl.config.MessageKey)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute})
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	clock = clock.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("a"))

	clock = clock.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.store)
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute})
	handler := rl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	do := func(path string, htmx bool) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if htmx {
			req.Header.Set("HX-Request", "true")
		}
		rec := httptest.NewRecorder()
		return rec, handler(e.NewContext(req, rec))
	}

	rec, err := do("/login", false)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = do("/login", false)
	he, ok := err.(*echo.HTTPError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
	}

	rec, err = do("/login", true)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="flash`)

	rec, err = do("/api/admin/create-user", false)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}
