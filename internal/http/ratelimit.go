package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pfm/internal/log"
)

const (
	limiterTTL     = 10 * time.Minute
	limiterCleanup = 5 * time.Minute
)

// rateLimiter keeps one token bucket per client IP. Idle buckets expire
// out of the cache.
type rateLimiter struct {
	perMinute int
	clients   *cache.Cache
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute < 1 {
		perMinute = 60
	}
	return &rateLimiter{
		perMinute: perMinute,
		clients:   cache.New(limiterTTL, limiterCleanup),
	}
}

func (rl *rateLimiter) limiterFor(clientIP string) *rate.Limiter {
	if v, ok := rl.clients.Get(clientIP); ok {
		rl.clients.SetDefault(clientIP, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute)
	if err := rl.clients.Add(clientIP, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := rl.clients.Get(clientIP); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *rateLimiter) allow(clientIP string) bool {
	return rl.limiterFor(clientIP).Allow()
}

// ActiveClients is the number of tracked buckets.
func (rl *rateLimiter) ActiveClients() int {
	return rl.clients.ItemCount()
}

// middleware limits mutating requests only; reads are never throttled.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ip := extractClientIP(r)
		if !rl.allow(ip) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(60))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
