// Package sqlite implements the ride request store on an embedded SQLite
// database. It is used for single-instance deployments and in tests.
package sqlite

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS ride_requests (
	id                   TEXT PRIMARY KEY,
	created_at           INTEGER NOT NULL,
	full_name            TEXT NOT NULL,
	dob                  INTEGER NOT NULL,
	trip_type            TEXT NOT NULL,
	pickup_address       TEXT NOT NULL,
	destination_address  TEXT NOT NULL,
	pickup_date_time     INTEGER NOT NULL,
	return_date_time     INTEGER,
	party_size           INTEGER NOT NULL,
	distance_miles       REAL,
	photo_id_file_name   TEXT,
	selfie_file_name     TEXT,
	payment_method       TEXT NOT NULL,
	ack_on_time          INTEGER NOT NULL,
	ack_payment_24h      INTEGER NOT NULL,
	ack_cancel_fee       INTEGER NOT NULL,
	payment_submitted    INTEGER NOT NULL DEFAULT 0,
	payment_submitted_at INTEGER,
	payment_confirmed    INTEGER NOT NULL DEFAULT 0,
	payment_confirmed_at INTEGER
);
CREATE INDEX IF NOT EXISTS ride_requests_created_at_idx ON ride_requests (created_at DESC);
`

// Config holds the parameters for opening the SQLite store.
type Config struct {
	// Path is the database file. ":memory:" gives a private in-memory
	// database; PoolSize is forced to 1 in that case since every
	// in-memory connection is independent.
	Path     string
	PoolSize int
}

// Pool is a fixed-size pool of SQLite connections with the schema applied.
type Pool struct {
	inner  *sqlitex.Pool
	logger *zap.Logger
	path   string
}

// Open creates the connection pool. Connections are prepared lazily on first Take.
func Open(cfg Config, logger *zap.Logger) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}
	if cfg.Path == ":memory:" {
		poolSize = 1
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite pool opened", zap.String("path", cfg.Path), zap.Int("pool_size", poolSize))

	return &Pool{inner: inner, logger: logger, path: cfg.Path}, nil
}

// Take borrows a connection. The caller must Put it back.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Close closes all connections, blocking until borrowed ones are returned.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close error", zap.String("path", p.path), zap.Error(err))
		return fmt.Errorf("sqlite: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite pool closed", zap.String("path", p.path))
	return nil
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlite: applying schema: %w", err)
	}
	return nil
}
