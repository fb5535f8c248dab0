package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/common/cnst"
	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/cg-dump/datasrv/internal/common/errorx"
)

type bucket struct {
	resetAt time.Time
	count   int
}

// RateLimiter is an in-memory fixed-window request limiter keyed by
// client IP. State is per-process.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter from the server configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		max:     cfg.MaxRequests,
		window:  cfg.Window,
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it is within the
// window's budget. The second return is the time until the window resets
// when the request is rejected.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok || now.After(b.resetAt) {
		r.buckets[key] = &bucket{count: 1, resetAt: now.Add(r.window)}
		return true, 0
	}
	b.count++
	if b.count > r.max {
		retry := b.resetAt.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return false, retry
	}
	return true, 0
}

// Middleware enforces the limit per client IP under the given key prefix.
func (r *RateLimiter) Middleware(keyPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := r.Allow(keyPrefix + ":" + clientIP(c))
		if !ok {
			abortWith(c, errorx.RateLimited("Too many requests").
				WithDetail("retryAfterMs", retry.Milliseconds()))
			return
		}
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader(cnst.HeaderForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if real := c.GetHeader(cnst.HeaderRealIP); real != "" {
		return real
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
