package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter keyed by client IP. The same type
// backs the coarse per-IP request cap and the hourly budgets on the form
// generation routes.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens added per second
	burst   float64
	retain  time.Duration // how long an idle bucket survives
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rps,
		burst:   float64(burst),
	}
	// Evicting an idle bucket resets its budget, so state must outlive
	// the time a full refill takes.
	rl.retain = 3 * time.Minute
	if rl.rate > 0 {
		if refill := time.Duration(rl.burst/rl.rate) * time.Second; refill > rl.retain {
			rl.retain = refill
		}
	}
	go rl.evictLoop()
	return rl
}

// Limit rejects requests once the caller's bucket is empty, with a
// Retry-After hint for when the next token accrues.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait, ok := rl.take(clientIP(r)); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(wait))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take consumes one token, reporting the seconds until one accrues when
// the bucket is empty.
func (rl *RateLimiter) take(key string) (int, bool) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		wait := 1
		if rl.rate > 0 {
			if w := int(math.Ceil((1 - b.tokens) / rl.rate)); w > wait {
				wait = w
			}
		}
		return wait, false
	}
	b.tokens--
	return 0, true
}

// clientIP keys buckets by host only; RemoteAddr carries a per-connection
// port, and the RealIP middleware has already resolved proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) evictLoop() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if time.Since(b.lastSeen) > rl.retain {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
