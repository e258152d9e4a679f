// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the process-local token-bucket limiter placed in front
// of the submit and retry endpoints, so one caller cannot flood the upstream
// pass API through us. Buckets are keyed per caller and idle buckets are
// evicted opportunistically. Idempotent replays never reach the upstream and
// therefore skip the limiter.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultVisitorTTL = 10 * time.Minute
	sweepEvery        = 5000
)

// keyFunc maps a request to its bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user, then the X-User-ID
// header, then the client IP. Prefixes keep the namespaces apart.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return "user:" + h
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	ttl   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		ttl:      defaultVisitorTTL,
		visitors: make(map[string]*visitor),
	}
}

// getVisitor returns the bucket for key, creating it on first use. Every
// sweepEvery lookups it first drops buckets idle for at least ttl, so a stale
// bucket is replaced rather than refreshed.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Len returns the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// IsRateBypass reports whether IdempotencyValidator exempted this request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. A denied request gets 429 with the standard
// error envelope and a Retry-After (whole seconds, at least 1) derived from
// when the bucket will next hold a token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(lim)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

func retryAfterSeconds(lim *rate.Limiter) int {
	res := lim.Reserve()
	if !res.OK() {
		return 1
	}
	d := res.Delay()
	res.Cancel()
	return max(1, int(math.Ceil(d.Seconds())))
}
