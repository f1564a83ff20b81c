package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rideintake/internal/access"
)

// AdminKeyHeader carries the shared admin secret in remote mode.
const AdminKeyHeader = "x-admin-key"

// AdminGate rejects callers the gate refuses. The caller IP comes from
// gin's ClientIP, so forwarding headers count only when the request arrives
// from one of the engine's trusted proxies.
func AdminGate(gate *access.Gate, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := access.CallerContext{
			Host:     c.Request.Host,
			AdminKey: c.GetHeader(AdminKeyHeader),
			IP:       c.ClientIP(),
		}

		decision := gate.Decide(caller)
		if !decision.Allowed {
			logger.Warn("admin access denied",
				zap.String("reason", string(decision.Reason)),
				zap.String("host", caller.Host),
				zap.String("ip", caller.IP),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(decision.Status, gin.H{"error": decision.Message})
			return
		}

		c.Next()
	}
}
