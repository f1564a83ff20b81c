package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rideintake/internal/ratelimit"
)

// Policy is the call budget for one operation.
type Policy struct {
	Limit  int
	Window time.Duration
}

// RateLimit throttles operation per caller IP. If the limiter itself fails the
// call is let through.
func RateLimit(limiter ratelimit.Limiter, operation string, policy Policy, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ratelimit.ClientIP(c.Request)
		key := ratelimit.Key(operation, ip)

		decision, err := limiter.Allow(c.Request.Context(), key, policy.Limit, policy.Window)
		if err != nil {
			logger.Error("rate limiter unavailable", zap.String("operation", operation), zap.Error(err))
			c.Next()
			return
		}

		if !decision.Allowed {
			retryAfter := decision.RetryAfterSeconds()
			logger.Info("rate limited",
				zap.String("operation", operation),
				zap.String("ip", ip),
				zap.Int("count", decision.Count),
				zap.Int("retry_after", retryAfter),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests.",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
