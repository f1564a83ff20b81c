package app

import (
	"fmt"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rideintake/internal/access"
	"rideintake/internal/config"
	"rideintake/internal/handler"
	"rideintake/internal/middleware"
	"rideintake/internal/ratelimit"
)

// Rate-limited operations.
const (
	OpAdminList    = "admin-list"
	OpAdminConfirm = "admin-confirm"
	OpDistance     = "distance"
	OpSubmit       = "submit"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideRequestHandler *handler.RideRequestHandler
	AdminHandler       *handler.AdminHandler
	DistanceHandler    *handler.DistanceHandler
	Gate               *access.Gate
	Limiter            ratelimit.Limiter
	TrustedProxies     []string // proxies whose X-Forwarded-For is believed by the admin gate
	RateLimits         config.RateLimitConfig
	RedisClient        *redis.Client // optional; enables Idempotency-Key replay
	NewRelicApp        *newrelic.Application
	Logger             *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("setting trusted proxies: %w", err)
	}

	router.Use(ginzap.Ginzap(deps.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(deps.Logger, true))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Replay runs after the gate and the limiter so a reused key never skips them.
	idempotent := middleware.Idempotency(deps.RedisClient, deps.Logger)

	limit := func(op string, p config.RatePolicy) gin.HandlerFunc {
		return middleware.RateLimit(deps.Limiter, op, middleware.Policy{Limit: p.Limit, Window: p.Window}, deps.Logger)
	}

	router.GET("/health", handler.Health)
	router.GET("/robots.txt", handler.Robots)

	api := router.Group("/api")
	{
		api.POST("/distance", limit(OpDistance, deps.RateLimits.Distance), deps.DistanceHandler.Resolve)

		requests := api.Group("/requests")
		{
			requests.POST("/validate", deps.RideRequestHandler.Validate)
			requests.POST("", limit(OpSubmit, deps.RateLimits.Submit), idempotent, deps.RideRequestHandler.Submit)
			requests.POST("/:id/payment-submitted", idempotent, deps.RideRequestHandler.MarkPaymentSubmitted)
		}

		admin := api.Group("/admin", middleware.NoIndex(), middleware.AdminGate(deps.Gate, deps.Logger))
		{
			admin.GET("/requests", limit(OpAdminList, deps.RateLimits.AdminList), deps.AdminHandler.List)
			admin.GET("/requests/:id", limit(OpAdminList, deps.RateLimits.AdminList), deps.AdminHandler.Get)
			admin.POST("/requests/:id/confirm-payment", limit(OpAdminConfirm, deps.RateLimits.AdminConfirm), idempotent, deps.AdminHandler.ConfirmPayment)
		}
	}

	return router, nil
}
