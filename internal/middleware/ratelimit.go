package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/urlclick/shortener/internal/errors"
	"github.com/urlclick/shortener/internal/logger"
)

// RateLimiter implements a per-IP token bucket. Redirect traffic is
// anonymous and bursty, so buckets are keyed by client IP and idle
// entries are dropped periodically.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*bucket
	rate     int           // tokens added per interval
	burst    int           // max tokens (bucket size)
	interval time.Duration // how often to add tokens
	cleanup  time.Duration // cleanup old entries
	log      *logger.Logger
}

type bucket struct {
	tokens    int
	lastCheck time.Time
}

// RateLimiterConfig holds rate limiter settings
type RateLimiterConfig struct {
	Rate     int           // Requests per interval
	Burst    int           // Max burst size
	Interval time.Duration // Token refill interval
	Cleanup  time.Duration // Cleanup interval for idle clients
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:     10,
		Burst:    20,
		Interval: time.Second,
		Cleanup:  5 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg RateLimiterConfig, log *logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*bucket),
		rate:     cfg.Rate,
		burst:    cfg.Burst,
		interval: cfg.Interval,
		cleanup:  cfg.Cleanup,
		log:      log,
	}

	go rl.cleanupLoop()

	return rl
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	b, exists := rl.clients[ip]
	if !exists {
		// New client gets a full bucket minus the current request
		rl.clients[ip] = &bucket{tokens: rl.burst - 1, lastCheck: now}
		return true
	}

	elapsed := now.Sub(b.lastCheck)
	refill := int(elapsed/rl.interval) * rl.rate
	if refill > 0 {
		b.tokens = min(b.tokens+refill, rl.burst)
		b.lastCheck = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// cleanupLoop removes idle client entries periodically
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.cleanup)
		for ip, b := range rl.clients {
			if b.lastCheck.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		count := len(rl.clients)
		rl.mu.Unlock()

		if rl.log != nil {
			rl.log.Debug("rate limiter cleanup", "active_clients", count)
		}
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if !rl.Allow(ip) {
				if rl.log != nil {
					rl.log.Warn("rate limit exceeded",
						"request_id", GetRequestID(r.Context()),
						"ip", ip,
						"path", r.URL.Path,
					)
				}

				w.Header().Set("Retry-After", "1")
				errors.RateLimitExceeded().WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
