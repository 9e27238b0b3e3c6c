package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sales-dashboard/internal/config"
)

// idleLimiterTTL is how long a client's limiter survives without requests.
const idleLimiterTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are removed
// by Sweep, which Run calls periodically.
type RateLimiter struct {
	clients map[string]*clientLimiter
	config  config.SecurityConfig
	now     func() time.Time
	mu      sync.Mutex
}

func NewRateLimiter(cfg config.SecurityConfig) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		config:  cfg,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.config.EnableRateLimit {
		return true
	}

	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RateLimitRPS), rl.config.RateLimitBurst),
		}
		rl.clients[ip] = c
	}
	now := rl.now()
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Sweep drops limiters idle for longer than ttl and returns how many remain.
func (rl *RateLimiter) Sweep(ttl time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-ttl)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
	return len(rl.clients)
}

// Run sweeps idle limiters every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(idleLimiterTTL)
		}
	}
}
