package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// ipLimiters hands out one token bucket per client address.
type ipLimiters struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
}

func (l *ipLimiters) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	return v.(*rate.Limiter)
}

// RateLimit throttles requests per client IP. It is mounted on the login
// and registration routes.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := &ipLimiters{limit: rate.Limit(cfg.RequestsPerSecond), burst: cfg.BurstSize}
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)

			limiter := store.get(c.RealIP())
			if !limiter.Allow() {
				h.Set("Retry-After", strconv.Itoa(retryAfter(cfg.RequestsPerSecond)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// retryAfter is the whole seconds until one token refills.
func retryAfter(rps float64) int {
	if rps <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/rps)))
}
