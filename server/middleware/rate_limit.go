package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/hrygo/prefcache/internal/errors"
)

const (
	// DefaultRate is the default per-client request rate.
	DefaultRate = 10
	// DefaultBurst is the default per-client burst.
	DefaultBurst = 20

	// defaultMaxClients bounds how many client buckets are tracked at once.
	defaultMaxClients = 10000
	// defaultIdleTTL is how long a client bucket lives before it is dropped.
	defaultIdleTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client key.
// Buckets are evicted once they expire or when the client set is full.
type RateLimiter struct {
	mu     sync.Mutex
	limits *expirable.LRU[string, *rate.Limiter]
	limit  rate.Limit
	burst  int
}

// NewRateLimiter creates a new rate limiter.
// Non-positive values fall back to DefaultRate and DefaultBurst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return newRateLimiter(rps, burst, defaultMaxClients, defaultIdleTTL)
}

func newRateLimiter(rps float64, burst int, maxClients int, ttl time.Duration) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, ttl),
		limit:  rate.Every(time.Duration(float64(time.Second) / rps)),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits.Get(key); ok {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limits.Add(key, limiter)
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware rejects requests over the limit of their client IP with 429.
// The client IP comes from the Echo IPExtractor; the server pins it to the
// socket peer so forwarding headers cannot mint fresh buckets.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				err := apperrors.RateLimitExceeded("too many requests")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"code":    string(err.Code),
					"message": err.Message,
				})
			}
			return next(c)
		}
	}
}
