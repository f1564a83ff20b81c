package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"rideintake/internal/access"
	"rideintake/internal/app"
	"rideintake/internal/config"
	"rideintake/internal/distance"
	"rideintake/internal/handler"
	"rideintake/internal/ratelimit"
	internalRedis "rideintake/internal/redis"
	"rideintake/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ride-intake: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		port       string
	)
	pflag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	pflag.StringVar(&port, "port", "", "HTTP listen port (overrides SERVER_PORT)")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	logger, err := app.NewLogger(cfg.App.Env)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic before the store so SQL can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	store, err := app.OpenStore(ctx, cfg.Database, nrApp, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	server, err := wireServer(store, redisClient, nrApp, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(store *app.Store, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) (*http.Server, error) {
	limiter, err := newLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		return nil, err
	}
	logger.Info("rate limiter ready", zap.String("backend", cfg.RateLimit.Backend))

	resolver := newResolver(cfg.Distance, redisClient, logger)

	notificationService := service.NewNotificationService(logger)
	opts := []service.Option{
		service.WithLogger(logger.Named("ride_request")),
		service.WithNotificationService(notificationService),
	}
	if resolver != nil {
		opts = append(opts, service.WithDistanceResolver(resolver))
	}
	rideRequestService := service.NewRideRequestService(store.Repo, opts...)

	validate := handler.NewValidator()
	rideRequestHandler := handler.NewRideRequestHandler(rideRequestService, validate, logger)
	adminHandler := handler.NewAdminHandler(rideRequestService)
	distanceHandler := handler.NewDistanceHandler(resolver, validate, logger)

	gate := access.NewGate(access.Config{
		LocalOnly:     cfg.Admin.LocalOnly,
		RemoteEnabled: cfg.Admin.RemoteEnabled,
		APIKey:        cfg.Admin.APIKey,
		IPAllowlist:   cfg.Admin.IPAllowlist,
	})
	if !cfg.Admin.LocalOnly && cfg.Admin.RemoteEnabled && cfg.Admin.APIKey == "" {
		logger.Warn("remote admin enabled without ADMIN_API_KEY; admin routes will fail")
	}

	router, err := app.NewRouter(app.RouterDeps{
		RideRequestHandler: rideRequestHandler,
		AdminHandler:       adminHandler,
		DistanceHandler:    distanceHandler,
		Gate:               gate,
		Limiter:            limiter,
		TrustedProxies:     cfg.Admin.TrustedProxies,
		RateLimits:         cfg.RateLimit,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}

func newLimiter(cfg config.RateLimitConfig, redisClient *redis.Client) (ratelimit.Limiter, error) {
	if cfg.Backend == config.RateLimitRedis {
		if redisClient == nil {
			return nil, errors.New("redis rate limiter requires a redis client")
		}
		return internalRedis.NewRateLimiter(redisClient), nil
	}
	return ratelimit.NewMemory(cfg.MaxKeys)
}

// newResolver returns nil when no API key is configured.
func newResolver(cfg config.DistanceConfig, redisClient *redis.Client, logger *zap.Logger) service.DistanceResolver {
	google, err := distance.NewGoogleResolver(cfg.APIKey)
	if err != nil {
		logger.Warn("distance lookups disabled", zap.Error(err))
		return nil
	}
	if redisClient == nil {
		return google
	}
	return distance.NewCached(google, internalRedis.NewCacheStore(redisClient, cfg.CacheTTL), logger.Named("distance"))
}
