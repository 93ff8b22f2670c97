package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 3 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (l *ipLimiter) touch(now time.Time) {
	l.mu.Lock()
	l.lastSeen = now
	l.mu.Unlock()
}

func (l *ipLimiter) idleSince(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return now.Sub(l.lastSeen)
}

// RateLimiter keeps one token bucket per client IP and drops buckets that
// have been idle for a few minutes.
type RateLimiter struct {
	rps   float64
	burst int

	limiters sync.Map
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter starts the idle-bucket sweeper; call Stop to end it.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &RateLimiter{rps: rps, burst: burst, stopCh: make(chan struct{})}
	go l.sweep()
	return l
}

// Allow reports whether ip may make another request now.
func (l *RateLimiter) Allow(ip string) bool {
	now := time.Now()
	if v, ok := l.limiters.Load(ip); ok {
		e := v.(*ipLimiter)
		e.touch(now)
		return e.limiter.Allow()
	}
	e := &ipLimiter{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst), lastSeen: now}
	actual, loaded := l.limiters.LoadOrStore(ip, e)
	if loaded {
		e = actual.(*ipLimiter)
		e.touch(now)
	}
	return e.limiter.Allow()
}

func (l *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.limiters.Range(func(key, value any) bool {
				if value.(*ipLimiter).idleSince(now) > limiterIdleTTL {
					l.limiters.Delete(key)
				}
				return true
			})
		case <-l.stopCh:
			return
		}
	}
}

// Stop ends the sweeper goroutine.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the first X-Forwarded-For entry and falls back to
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i != -1 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
