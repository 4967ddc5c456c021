package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/sseplex/errors"
	"github.com/kbukum/sseplex/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*gin.Context) string

// IPBasedKey uses the client IP as the rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit rejects requests with 429 once their key exceeds the limiter's budget.
func RateLimit(rl *resilience.RateLimiter, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = IPBasedKey
	}
	return func(c *gin.Context) {
		if !rl.Allow(key(c)) {
			appErr := errors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
