package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address, preferring CF-Connecting-IP, then the
// first X-Forwarded-For hop, then RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// bucket counts attempts in a fixed window ending at resetAt.
type bucket struct {
	hits    int
	resetAt time.Time
}

// Verdict is the outcome of a single Allow call.
type Verdict struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the time left until the window resets.
	RetryAfter time.Duration
}

// RateLimiter is a fixed-window counter keyed by caller and route.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

// Allow counts one attempt for key against limit per period.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) Verdict {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(period)}
		rl.buckets[key] = b
	}
	b.hits++
	return Verdict{
		Allowed:    b.hits <= limit,
		Remaining:  max(limit-b.hits, 0),
		RetryAfter: b.resetAt.Sub(now),
	}
}

// Cleanup drops buckets whose window has passed.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit limits requests per keyFunc value within scope, so separate
// routes keep separate budgets. Denied requests get 429 with Retry-After in
// whole seconds.
func RateLimit(limiter *RateLimiter, scope string, keyFunc func(*http.Request) string, limit int, period time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := limiter.Allow(scope+"|"+keyFunc(r), limit, period)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
			if !v.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(v.RetryAfter)))
				deny(w, http.StatusTooManyRequests, "too many attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
