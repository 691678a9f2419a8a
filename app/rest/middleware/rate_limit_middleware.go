package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter applies per-IP request limits, with a stricter budget on
// credential endpoints than on the rest of the API.
type RateLimiter struct {
	visitors map[string]*Visitor
	mutex    sync.RWMutex

	authLimit rate.Limit
	authBurst int
}

type Visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter. authPerMinute and authBurst
// bound the credential endpoints (login, register, recovery).
func NewRateLimiter(authPerMinute float64, authBurst int) *RateLimiter {
	if authPerMinute <= 0 {
		authPerMinute = 5
	}
	if authBurst <= 0 {
		authBurst = 10
	}

	rl := &RateLimiter{
		visitors:  make(map[string]*Visitor),
		authLimit: rate.Limit(authPerMinute / 60.0),
		authBurst: authBurst,
	}

	go rl.cleanupVisitors()
	return rl
}

func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			var limit rate.Limit
			var burst int

			path := c.Request().URL.Path
			switch {
			case isCredentialPath(path):
				limit = rl.authLimit
				burst = rl.authBurst
			default:
				limit = rate.Every(50 * time.Millisecond)
				burst = 40
			}

			// Separate buckets so a burst of catalog reads cannot
			// starve a login attempt.
			key := ip
			if isCredentialPath(path) {
				key = ip + ":auth"
			}

			if !rl.allow(key, limit, burst) {
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error": "rate limit exceeded",
					"code":  "RATE_LIMIT_EXCEEDED",
				})
			}

			return next(c)
		}
	}
}

func isCredentialPath(path string) bool {
	return strings.Contains(path, "/auth/login") ||
		strings.Contains(path, "/auth/register") ||
		strings.Contains(path, "/auth/recovery")
}

func (rl *RateLimiter) allow(key string, limit rate.Limit, burst int) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	visitor, exists := rl.visitors[key]
	if !exists {
		visitor = &Visitor{limiter: rate.NewLimiter(limit, burst)}
		rl.visitors[key] = visitor
	}

	// The first request consumes a token like every other one, so a
	// burst of N admits exactly N requests.
	visitor.lastSeen = time.Now()
	return visitor.limiter.Allow()
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		rl.mutex.Lock()
		for key, visitor := range rl.visitors {
			if time.Since(visitor.lastSeen) > 3*time.Minute {
				delete(rl.visitors, key)
			}
		}
		rl.mutex.Unlock()
	}
}
