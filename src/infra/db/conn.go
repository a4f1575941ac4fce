package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"

	"webscaffold/src/infra/logger"
)

// Row is one result record keyed by column name.
type Row map[string]any

// Rows is an ordered set of records.
type Rows []Row

// Field describes one result column.
type Field struct {
	Name         string `json:"name"`
	DatabaseType string `json:"database_type,omitempty"`
}

// Result is what every query returns: the rows and the columns that shaped them.
type Result struct {
	Rows   Rows
	Fields []Field
}

// Querier is the query capability of a borrowed connection.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*Result, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Release() error
}

// sqlConn adapts a *sql.Conn checked out of the pool to Querier.
type sqlConn struct {
	conn *sql.Conn
}

func (c sqlConn) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (c sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some statements (DDL) have no meaningful count.
		return 0, nil
	}
	return n, nil
}

// Release returns the connection to the pool.
func (c sqlConn) Release() error {
	return c.conn.Close()
}

func scanRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(cols))
	for i, ct := range cols {
		fields[i] = Field{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
	}

	out := Rows{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{Rows: out, Fields: fields}, nil
}

// Conn is an instrumented connection. Every statement is logged at debug
// level and timed; a failed statement releases the connection before the
// error is returned, so callers never leak a connection on the error path.
type Conn struct {
	inner    Querier
	log      *slog.Logger
	metrics  *Metrics
	released atomic.Bool
}

// Instrument decorates q. Instrumenting a *Conn returns it unchanged.
func Instrument(q Querier, log *slog.Logger, metrics *Metrics) *Conn {
	if c, ok := q.(*Conn); ok {
		return c
	}
	return &Conn{inner: q, log: log, metrics: metrics}
}

// Query runs a statement that returns rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	logger.Debug(c.log, "query", "sql", query, "args", args)

	start := time.Now()
	res, err := c.inner.Query(ctx, query, args...)
	c.metrics.observe(start, err)
	if err != nil {
		c.releaseOnError(err)
		return nil, err
	}
	return res, nil
}

// Exec runs a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	logger.Debug(c.log, "exec", "sql", query, "args", args)

	start := time.Now()
	n, err := c.inner.Exec(ctx, query, args...)
	c.metrics.observe(start, err)
	if err != nil {
		c.releaseOnError(err)
		return 0, err
	}
	return n, nil
}

// Release hands the connection back to the pool. Only the first call has
// an effect, so a deferred Release after a failed query is harmless.
func (c *Conn) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	return c.inner.Release()
}

// Released reports whether the connection went back to the pool.
func (c *Conn) Released() bool {
	return c.released.Load()
}

func (c *Conn) releaseOnError(cause error) {
	if err := c.Release(); err != nil {
		logger.Warn(c.log, "failed to release connection", "error", err, "cause", cause)
	}
}
