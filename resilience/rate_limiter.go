package resilience

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a key has used up its budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a keyed rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for logging.
	Name string
	// Rate is the number of requests allowed per second per key. Zero disables limiting.
	Rate float64
	// Burst is the maximum burst size per key.
	Burst int
	// IdleTTL is how long an unused key keeps its bucket.
	IdleTTL time.Duration
	// OnLimit is called when a request is rate limited.
	OnLimit func(name, key string)
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:    name,
		Rate:    10.0,
		Burst:   20,
		IdleTTL: 5 * time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key, for example per client IP.
// Buckets that have been idle for IdleTTL are discarded.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter creates a keyed rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = int(config.Rate)
		if config.Burst < 1 {
			config.Burst = 1
		}
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 5 * time.Minute
	}
	return &RateLimiter{
		config:    config,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Enabled reports whether any limit is applied.
func (rl *RateLimiter) Enabled() bool { return rl.config.Rate > 0 }

// Allow reports whether one more request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	now := rl.now()
	rl.sweep(now)
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	rl.mu.Unlock()

	if !allowed && rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name, key)
	}
	return allowed
}

// Execute runs fn if key is within its limit.
func (rl *RateLimiter) Execute(key string, fn func() error) error {
	if !rl.Allow(key) {
		return ErrRateLimited
	}
	return fn()
}

// Keys returns the number of tracked keys.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Rate returns the per-key rate (requests per second).
func (rl *RateLimiter) Rate() float64 { return rl.config.Rate }

// Burst returns the per-key burst size.
func (rl *RateLimiter) Burst() int { return rl.config.Burst }

// sweep drops idle buckets at most once per IdleTTL. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.config.IdleTTL {
		return
	}
	rl.lastSweep = now
	cutoff := now.Add(-rl.config.IdleTTL)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
