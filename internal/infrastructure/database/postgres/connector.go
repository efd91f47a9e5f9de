package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"customer-directory/internal/config"
	"customer-directory/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

// DBPool is the slice of pgxpool.Pool the repositories use. Narrowing it
// to an interface keeps the SQL layer testable against pgxmock.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

type connectorState int

const (
	stateUninitialized connectorState = iota
	stateReady
	stateDegraded
)

func (s connectorState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateDegraded:
		return "degraded"
	default:
		return "uninitialized"
	}
}

// Connector owns the single shared handle to the backing store. It starts
// uninitialized and moves exactly once to either ready (store URL present)
// or degraded (store URL absent); there is no transition back. In the
// degraded state the process keeps running and every caller that checks
// Ready sees the store as unavailable.
type Connector struct {
	mu     sync.RWMutex
	pool   DBPool
	state  connectorState
	logger *slog.Logger
}

func NewConnector(logger *slog.Logger) *Connector {
	if logger == nil {
		panic("logger cannot be nil for Connector")
	}
	return &Connector{
		logger: logger.With("component", "StoreConnector"),
	}
}

// Initialize reads the store endpoint from configuration and builds the
// shared pool. A missing URL leaves the connector degraded and returns nil;
// a malformed URL is a hard error. The pool connects lazily, so a store
// that is unreachable at startup does not block initialization; Probe and
// the readiness endpoint report its actual health.
func (c *Connector) Initialize(ctx context.Context, cfg config.DatabaseConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateUninitialized {
		return fmt.Errorf("store connector already initialized (state %s)", c.state)
	}

	if cfg.URL == "" {
		c.state = stateDegraded
		c.logger.Warn("Database URL is empty, store connector entering degraded state")
		return nil
	}

	poolConfig, err := configurePool(cfg)
	if err != nil {
		return err
	}

	c.logger.Info("Connecting to PostgreSQL database...")
	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		c.logger.Warn("Database unreachable at startup, continuing anyway", "error", err)
	} else {
		c.logger.Info("Successfully connected to PostgreSQL database.", "host", poolConfig.ConnConfig.Host, "db", poolConfig.ConnConfig.Database)
	}

	c.pool = dbpool
	c.state = stateReady
	return nil
}

func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	return poolConfig, nil
}

// Ready reports whether a usable store handle exists. Side-effect free.
func (c *Connector) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateReady
}

// Handle returns the live store handle, or ErrNotInitialized when the
// connector never reached the ready state. Callers are expected to have
// checked Ready first; hitting this error is a programming mistake.
func (c *Connector) Handle() (DBPool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != stateReady {
		return nil, fmt.Errorf("%w: connector state is %s", apperrors.ErrNotInitialized, c.state)
	}
	return c.pool, nil
}

// Probe issues a minimal one-row read against the customers table and
// reports whether the store answered. It never returns an error: failures
// are logged and reported as false. An empty table still probes true.
func (c *Connector) Probe(ctx context.Context) bool {
	db, err := c.Handle()
	if err != nil {
		c.logger.WarnContext(ctx, "Store probe skipped, connector not ready")
		return false
	}

	var one int
	err = db.QueryRow(ctx, `SELECT 1 FROM customers LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		c.logger.ErrorContext(ctx, "Store probe failed", slog.Any("error", err))
		return false
	}

	c.logger.DebugContext(ctx, "Store probe succeeded")
	return true
}

// Close releases the pool. Safe to call on a degraded connector.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.logger.Info("Closing database connection pool...")
		c.pool.Close()
		c.pool = nil
	}
}
