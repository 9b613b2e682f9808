// ABOUTME: Per-client rate limiter for the fake endpoint
// ABOUTME: Answers 429 with a JSON error once a client exceeds its per-minute budget

package main

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newClientLimiter allows perMinute requests per client, refilled evenly.
// perMinute <= 0 disables limiting.
func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		return &clientLimiter{}
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *clientLimiter) allow(key string) bool {
	if l.limiters == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": rateLimitedMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}
