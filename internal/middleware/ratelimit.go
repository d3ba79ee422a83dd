// internal/middleware/ratelimit.go
//
// Per-client rate limiting for the login endpoint.
//
// Context
// -------
// Each client address gets its own token bucket (golang.org/x/time/rate).
// Buckets live in a bounded LRU, so a flood of distinct addresses evicts the
// oldest buckets instead of growing memory without limit.  A rejected request
// gets 429 with a JSON body shaped like every other endpoint failure,
// {"message": "..."}, so the sign-in client surfaces it as its server error.

package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/yanizio/adept-signin/internal/cache"
	"github.com/yanizio/adept-signin/internal/metrics"
)

// MsgTooManyAttempts is the 429 message.
const MsgTooManyAttempts = "Too many attempts.  Please wait and try again."

// RateLimiter hands out per-address limiters.
type RateLimiter struct {
	limit rate.Limit
	burst int
	cache *cache.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows perSecond sustained requests and burst extra per
// client address, tracking at most maxClients addresses.
func NewRateLimiter(perSecond float64, burst, maxClients int) *RateLimiter {
	return &RateLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		cache: cache.New[string, *rate.Limiter](maxClients),
	}
}

// Middleware rejects requests over the client's budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := rl.cache.GetOrAdd(clientIP(r), func() *rate.Limiter {
			return rate.NewLimiter(rl.limit, rl.burst)
		})

		res := lim.Reserve()
		if !res.OK() || res.Delay() > 0 {
			retry := res.Delay()
			res.Cancel()
			metrics.RateLimitedTotal.Inc()

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": MsgTooManyAttempts})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the remote address without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
