// Package resilience provides request rate limiting for the publish path.
//
// RateLimiter keeps a token bucket per key (usually the client IP) built on
// golang.org/x/time/rate and forgets keys that stay idle:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 10})
//	if !rl.Allow(clientIP) {
//	    // reject with 429
//	}
package resilience
