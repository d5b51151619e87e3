package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Buckets idle for longer
// than the cleanup window are dropped.
type RateLimiter struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   float64
	burst int
	now   func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{m: map[string]*limiterEntry{}, rps: rps, burst: burst, now: time.Now}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.m[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.m[key] = e
	}
	e.lastSeen = l.now()
	return e.limiter
}

func (l *RateLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Sweep drops buckets not used since idle ago and returns how many remain.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	for key, e := range l.m {
		if e.lastSeen.Before(cutoff) {
			delete(l.m, key)
		}
	}
	return len(l.m)
}

// RunCleanup sweeps every interval until ctx is done.
func (l *RateLimiter) RunCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}

// Middleware rejects requests over the caller's budget with 429. It must run
// after an auth middleware; anonymous requests are keyed by remote address.
func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if id, ok := IdentityFromContext(c); ok {
				key = id.Email
			}
			if !l.Allow(key) {
				metrics.RateLimited.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, slow down")
			}
			return next(c)
		}
	}
}
