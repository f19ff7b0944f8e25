package middleware

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/editorialchain/internal/auth"
	"github.com/sakif/editorialchain/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	limiterLabel = "memory"

	// clients idle this long are dropped from the table
	defaultIdleTTL = 10 * time.Minute
)

// RateLimiter is an in-memory token bucket per client.
//
// The key is the signed-in identity when the session middleware ran before
// it, otherwise the client IP (chi's RealIP has already rewritten
// RemoteAddr from X-Forwarded-For).
//
// Clients idle for longer than the idle TTL are evicted. The TTL is never
// shorter than a full refill, so a dropped bucket was full anyway.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	clients   sync.Map // key → *client
	lastSweep atomic.Int64
}

type client struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewRateLimiter allows rps requests per second with bursts of burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &RateLimiter{rps: rate.Limit(rps), burst: burst, idleTTL: defaultIdleTTL, now: time.Now}
	if rps > 0 {
		refill := time.Duration(float64(burst) / rps * float64(time.Second))
		l.idleTTL = max(l.idleTTL, refill)
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	now := l.now().UnixNano()
	l.sweep(now)

	v, ok := l.clients.Load(key)
	if !ok {
		v, _ = l.clients.LoadOrStore(key, &client{limiter: rate.NewLimiter(l.rps, l.burst)})
	}
	c := v.(*client)
	c.lastSeen.Store(now)
	return c.limiter
}

// sweep drops idle clients, at most once per idle TTL. Only the goroutine
// that wins the swap walks the table.
func (l *RateLimiter) sweep(now int64) {
	last := l.lastSweep.Load()
	if now-last < int64(l.idleTTL) || !l.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(l.idleTTL)
	l.clients.Range(func(k, v any) bool {
		if v.(*client).lastSeen.Load() < cutoff {
			l.clients.Delete(k)
		}
		return true
	})
}

// Middleware rejects over-limit requests with 429 and Retry-After.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientKey(r)).Allow() {
			metrics.RateLimitRejected.WithLabelValues(limiterLabel).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too_many_requests","message":"rate limit exceeded"}`))
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(limiterLabel).Inc()
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if uid, ok := auth.UIDFromContext(r.Context()); ok {
		return "uid:" + uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
