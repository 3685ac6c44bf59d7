package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the identity of its rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByIP keys buckets by client IP. The API is anonymous, so there is no
// user identity to prefer.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local, per-key token bucket limiter built on
// golang.org/x/time/rate. Idle buckets are evicted opportunistically.
// It is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  uint64

	ttl        time.Duration
	sweepEvery uint64
	exempt     map[string]struct{}
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (coerced to at least 1). Requests whose URL path is listed in
// exempt are never limited.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc, exempt ...string) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByIP()
	}
	ex := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		ex[p] = struct{}{}
	}
	return &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		now:        time.Now,
		visitors:   make(map[string]*visitor),
		ttl:        10 * time.Minute,
		sweepEvery: 5000,
		exempt:     ex,
	}
}

// limiter returns the bucket for key. The sweep runs before the lookup so a
// stale bucket is evicted even when it is the one being requested.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepEvery {
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

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Handler enforces the limit. Rejected requests get 429 with the standard
// error envelope and a Retry-After hint in whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.exempt[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		lim := rl.limiter(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(lim)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfterSeconds estimates when the next token is available, at least 1.
func retryAfterSeconds(lim *rate.Limiter) int {
	r := lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 1
	}
	return int(math.Max(1, math.Ceil(r.Delay().Seconds())))
}
