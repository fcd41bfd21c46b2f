package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"synq/backend/internal/common"
	"synq/backend/internal/config"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

// IPRateLimiter keeps one token bucket per client IP. A bucket left idle
// for longer than the configured TTL is evicted, so a client returning
// after that starts with a full bucket.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

func NewIPRateLimiter(cfg config.RateLimitConfig) *IPRateLimiter {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = constants.DefaultRateLimitIdleTTL
	}
	return &IPRateLimiter{
		limiters: cache.New(idle, idle),
		limit:    rate.Limit(float64(cfg.RedeemPerMinute) / 60),
		burst:    cfg.Burst,
		idleTTL:  idle,
	}
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// every hit pushes the eviction deadline back
	l.limiters.Set(ip, limiter, l.idleTTL)
	return limiter.(*rate.Limiter)
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !l.getLimiter(ip).Allow() {
			w.Header().Set("Retry-After", "60")
			err := domainerr.TooManyRequests("Too many requests")
			common.RespondError(w, time.Now(), err, constants.MsgInternal)
			return
		}

		next.ServeHTTP(w, r)
	})
}
