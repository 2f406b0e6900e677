package middleware

import (
	"net/http"
	"sync"
	"time"

	"rov_inventory_go/services/i18n"
	"rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// Requests is the maximum number of requests allowed within the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
	// KeyFunc returns the bucket key (defaults to the client IP)
	KeyFunc func(c echo.Context) string
	// MessageKey is the translation key of the rejection message
	MessageKey string
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// RateLimiter is a fixed-window, in-memory limiter for one route group.
type RateLimiter struct {
	config RateLimitConfig
	store  map[string]*rateLimitEntry
	mu     sync.Mutex
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string {
			return c.RealIP()
		}
	}
	if config.MessageKey == "" {
		config.MessageKey = "errors.rate_limited"
	}
	return &RateLimiter{
		config: config,
		store:  make(map[string]*rateLimitEntry),
		now:    time.Now,
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.store[key]
	if !ok || now.After(entry.expiresAt) {
		rl.store[key] = &rateLimitEntry{count: 1, expiresAt: now.Add(rl.config.Window)}
		return true
	}
	if entry.count >= rl.config.Requests {
		return false
	}
	entry.count++
	return true
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.Allow(rl.config.KeyFunc(c)) {
				return next(c)
			}
			msg := i18n.Translate(GetLocale(c), rl.config.MessageKey)
			switch {
			case isAPI(c):
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": msg})
			case IsHTMX(c):
				c.Response().WriteHeader(http.StatusTooManyRequests)
				return components.Flash(components.FlashError, msg).Render(c.Request().Context(), c.Response())
			default:
				return echo.NewHTTPError(http.StatusTooManyRequests, msg)
			}
		}
	}
}

// Cleanup drops expired buckets. The scheduler calls it periodically.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, entry := range rl.store {
		if now.After(entry.expiresAt) {
			delete(rl.store, key)
		}
	}
}

// LoginRateLimiter limits sign-in attempts to 5 per minute per IP
var LoginRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests:   5,
	Window:     time.Minute,
	MessageKey: "errors.rate_limited_login",
})

// AdminAPIRateLimiter limits the user provisioning endpoint to 20 per minute per IP
var AdminAPIRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 20,
	Window:   time.Minute,
})
