package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a client's bucket survives without requests.
const idleAfter = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleAfter are swept on a later request.
type RateLimiter struct {
	bucket    map[string]*client
	rate      rate.Limit
	burstSize int
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func NewRateLimiter(perSecond float64, burstSize int) *RateLimiter {
	return &RateLimiter{
		bucket:    make(map[string]*client),
		rate:      rate.Limit(perSecond),
		burstSize: burstSize,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// LimiterFor returns the bucket of ip, creating it on first use.
func (l *RateLimiter) LimiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleAfter {
		l.sweep(now)
	}

	c, ok := l.bucket[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burstSize)}
		l.bucket[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Clients returns the number of tracked client IPs.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bucket)
}

func (l *RateLimiter) sweep(now time.Time) {
	for ip, c := range l.bucket {
		if now.Sub(c.lastSeen) > idleAfter {
			delete(l.bucket, ip)
		}
	}
	l.lastSweep = now
}

// Limit rejects requests over the client's budget with 429.
func (l *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.LimiterFor(clientIP(r)).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
