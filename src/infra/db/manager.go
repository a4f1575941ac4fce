package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"golang.org/x/sync/singleflight"

	"webscaffold/src/infra/config"
	"webscaffold/src/infra/logger"
)

const driverName = "pgx"

// settingsQuery selects the server settings reported by Settings.
const settingsQuery = `
	SELECT name, setting
	FROM pg_settings
	WHERE name IN ('server_version', 'server_encoding', 'lc_collate', 'lc_ctype', 'max_connections')
`

// Option overrides part of the connection config for one Connect call.
type Option func(*connectOptions)

type connectOptions struct {
	cfg config.DatabaseConfig
	log *slog.Logger
}

// WithPort overrides the database port.
func WithPort(port int) Option { return func(o *connectOptions) { o.cfg.Port = port } }

// WithUser overrides the login user.
func WithUser(user string) Option { return func(o *connectOptions) { o.cfg.User = user } }

// WithDatabase overrides the target database name.
func WithDatabase(name string) Option { return func(o *connectOptions) { o.cfg.Name = name } }

// WithLogger makes the returned connection log its statements to log.
func WithLogger(log *slog.Logger) Option { return func(o *connectOptions) { o.log = log } }

// Manager owns the connection pool. The pool is opened by the first
// successful Connect and reused by every later call; connection overrides
// passed after that point only affect instrumentation.
type Manager struct {
	cfg     config.DatabaseConfig
	log     *slog.Logger
	metrics *Metrics

	// replaceable in unit tests
	open      func(dsn string) (*sql.DB, error)
	execAdmin func(ctx context.Context, dsn, stmt string) error

	mu        sync.RWMutex
	pool      *sql.DB
	group     singleflight.Group
	available atomic.Bool
}

// New creates a Manager. No connection is made until Connect.
func New(cfg config.DatabaseConfig, log *slog.Logger, metrics *Metrics) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		cfg:       cfg,
		log:       logger.WithComponent(log, "db"),
		metrics:   metrics,
		open:      openPool,
		execAdmin: execAdmin,
	}
}

// NewFromDB creates a Manager around an already opened pool.
func NewFromDB(pool *sql.DB, cfg config.DatabaseConfig, log *slog.Logger, metrics *Metrics) *Manager {
	m := New(cfg, log, metrics)
	m.pool = pool
	m.available.Store(true)
	return m
}

// Connect borrows an instrumented connection from the pool, opening the pool
// first if needed. The caller must Release the connection.
func (m *Manager) Connect(ctx context.Context, opts ...Option) (*Conn, error) {
	o := connectOptions{cfg: m.cfg, log: m.log}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := m.ensurePool(ctx, o.cfg)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to borrow connection: %w", err)
	}
	return Instrument(sqlConn{conn: conn}, o.log, m.metrics), nil
}

// Available reports whether a pool has been opened successfully.
func (m *Manager) Available() bool {
	return m.available.Load()
}

// Health checks if the database is reachable.
func (m *Manager) Health(ctx context.Context) error {
	conn, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	res, err := conn.Query(ctx, "SELECT 1 AS ok")
	if err != nil {
		return err
	}
	_, err = Single(res)
	return err
}

// Settings returns a few server settings keyed by setting name.
func (m *Manager) Settings(ctx context.Context) (map[string]string, error) {
	conn, err := m.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	res, err := conn.Query(ctx, settingsQuery)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for name, row := range ToMap("name", ToObject(res)) {
		out[name] = mapKey(row["setting"])
	}
	return out, nil
}

// Close closes the pool.
// Call this during graceful shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		_ = m.pool.Close()
		m.pool = nil
		m.available.Store(false)
		m.log.Info("database connection closed")
	}
}

func (m *Manager) currentPool() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

// ensurePool returns the pool, opening it on first use. Concurrent first
// callers share a single open attempt, which runs detached from the
// cancellation of whichever caller started it.
func (m *Manager) ensurePool(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if pool := m.currentPool(); pool != nil {
		return pool, nil
	}

	v, err, _ := m.group.Do("pool", func() (any, error) {
		if pool := m.currentPool(); pool != nil {
			return pool, nil
		}
		pool, err := m.openVerified(context.WithoutCancel(ctx), cfg)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.pool = pool
		m.mu.Unlock()
		m.available.Store(true)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// openVerified opens a pool and checks it with a trivial query. A missing
// database is created once, then the open is retried; a second miss is
// returned to the caller.
func (m *Manager) openVerified(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	created := false
	for {
		m.log.Info("connecting to database",
			"database", cfg.Name,
			"host", cfg.Host,
			"port", cfg.Port,
			"user", cfg.User,
		)

		pool, err := m.open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		pool.SetMaxOpenConns(cfg.MaxConns)

		err = ping(ctx, pool)
		if err == nil {
			m.log.Info("database connection established", "database", cfg.Name)
			return pool, nil
		}
		_ = pool.Close()

		if !IsUnknownDatabase(err) || created {
			return nil, fmt.Errorf("failed to connect to database %q: %w", cfg.Name, err)
		}

		m.log.Info("database does not exist, creating it", "database", cfg.Name)
		if err := m.execAdmin(ctx, cfg.AdminDSN(), createDatabaseSQL(cfg)); err != nil {
			return nil, fmt.Errorf("failed to create database %q: %w", cfg.Name, err)
		}
		m.log.Info("created database", "database", cfg.Name)
		created = true
	}
}

func ping(ctx context.Context, pool *sql.DB) error {
	conn, err := pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var one int
	return conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func createDatabaseSQL(cfg config.DatabaseConfig) string {
	collation := quoteLiteral(cfg.Collation)
	return fmt.Sprintf(
		"CREATE DATABASE %s ENCODING 'UTF8' LC_COLLATE %s LC_CTYPE %s TEMPLATE template0",
		pgx.Identifier{cfg.Name}.Sanitize(), collation, collation,
	)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func openPool(dsn string) (*sql.DB, error) {
	return sql.Open(driverName, dsn)
}

// execAdmin runs stmt on a dedicated, non-pooled connection.
func execAdmin(ctx context.Context, dsn, stmt string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, stmt)
	return err
}
