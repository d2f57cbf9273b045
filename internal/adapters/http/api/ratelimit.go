package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/stylist/pkg/metrics"
)

const (
	limiterIdleTTL    = time.Hour
	limiterSweepEvery = 10 * time.Minute
)

// RateLimiter implements per-client token bucket limiting with automatic
// cleanup of idle clients.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. A non-positive rps returns nil, which disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(rps),
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// Allow reports whether a request from client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	now := rl.now()
	rl.mu.Lock()
	entry, ok := rl.limiters[client]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[client] = entry
	}
	entry.lastAccess = now
	if now.Sub(rl.lastSweep) > limiterSweepEvery {
		rl.sweep(now)
	}
	rl.mu.Unlock()
	return entry.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than limiterIdleTTL. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.lastSweep = now
	for client, e := range rl.limiters {
		if now.Sub(e.lastAccess) > limiterIdleTTL {
			delete(rl.limiters, client)
		}
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			metrics.RecordRateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(1/float64(rl.rate)))))
			writeError(w, http.StatusTooManyRequests, "rate_limited",
				fmt.Errorf("%w: slow down", ErrRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// clientKey identifies the caller by remote IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
