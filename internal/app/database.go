package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"rideintake/internal/config"
	"rideintake/internal/repository"
	"rideintake/internal/repository/postgres"
	"rideintake/internal/repository/sqlite"
)

// NewDatabase creates a new PostgreSQL connection with optimized settings.
// If nrApp is provided, it uses New Relic instrumented driver for automatic SQL tracing.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driverName := "postgres"
	if nrApp != nil {
		driverName = "nrpostgres"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driverName, err)
	}

	// Ride requests are low volume; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgres.Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// Store is an open record store and the function that releases it.
type Store struct {
	Repo  repository.RideRequestRepository
	Close func() error
}

// OpenStore opens the record store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application, logger *zap.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		pool, err := sqlite.Open(sqlite.Config{Path: cfg.SQLitePath, PoolSize: cfg.SQLitePool}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to SQLite", zap.String("path", cfg.SQLitePath))
		return &Store{Repo: sqlite.NewRideRequestRepository(pool), Close: pool.Close}, nil

	case config.DriverPostgres:
		db, err := NewDatabase(ctx, cfg, nrApp)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.Bool("newrelic", nrApp != nil))
		return &Store{Repo: postgres.NewRideRequestRepository(db), Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
