package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"webscaffold/src/core/ports"
	"webscaffold/src/infra/db"
)

// Connector hands out instrumented connections. *db.Manager implements it.
type Connector interface {
	Connect(ctx context.Context, opts ...db.Option) (*db.Conn, error)
}

var _ ports.MigrationStore = (*Storage)(nil)

// Storage records executed migrations in a bookkeeping table. Every
// operation borrows one connection for one statement and releases it.
type Storage struct {
	db     Connector
	log    *slog.Logger
	table  string
	column string
}

// NewStorage creates a Storage over the "migrations" table and its "name" column.
func NewStorage(conn Connector, log *slog.Logger) *Storage {
	return NewStorageFor(conn, log, "migrations", "name")
}

// NewStorageFor creates a Storage over a custom table and column.
func NewStorageFor(conn Connector, log *slog.Logger, table, column string) *Storage {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Storage{
		db:     conn,
		log:    log,
		table:  pgx.Identifier{table}.Sanitize(),
		column: pgx.Identifier{column}.Sanitize(),
	}
}

// Executed returns the recorded migration names in ascending order.
func (s *Storage) Executed(ctx context.Context) ([]string, error) {
	s.log.Debug("fetching list of completed migrations")

	q := fmt.Sprintf(`SELECT %s AS name FROM %s ORDER BY %s ASC`, s.column, s.table, s.column)

	var names []string
	err := s.withConn(ctx, func(conn *db.Conn) error {
		res, err := conn.Query(ctx, q)
		if err != nil {
			return err
		}
		names = make([]string, 0, len(res.Rows))
		for _, row := range res.Rows {
			name, ok := row["name"].(string)
			if !ok {
				return fmt.Errorf("unexpected migration name %v (%T)", row["name"], row["name"])
			}
			names = append(names, name)
		}
		return nil
	})
	return names, err
}

// LogMigration records name. A name that is already recorded fails with
// the unique violation reported by the database.
func (s *Storage) LogMigration(ctx context.Context, name string) error {
	s.log.Debug("adding migration to completed list", "migration", name)

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1)`, s.table, s.column)
	err := s.withConn(ctx, func(conn *db.Conn) error {
		_, err := conn.Exec(ctx, q, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return nil
}

// UnlogMigration removes name from the completed list.
func (s *Storage) UnlogMigration(ctx context.Context, name string) error {
	s.log.Debug("removing migration from completed list", "migration", name)

	q := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, s.table, s.column)
	err := s.withConn(ctx, func(conn *db.Conn) error {
		_, err := conn.Exec(ctx, q, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to remove migration %s: %w", name, err)
	}
	return nil
}

// CreateTable creates the bookkeeping table when it is missing.
func (s *Storage) CreateTable(ctx context.Context) error {
	q := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  %[2]s VARCHAR(36) NOT NULL,
  PRIMARY KEY (%[2]s)
);
COMMENT ON TABLE %[1]s IS 'Names of the database migration scripts that have run so far. Read at startup to bring the schema up to date.'`,
		s.table, s.column)

	err := s.withConn(ctx, func(conn *db.Conn) error {
		_, err := conn.Exec(ctx, q)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	s.log.Info("created migrations table", "table", s.table)
	return nil
}

func (s *Storage) withConn(ctx context.Context, fn func(conn *db.Conn) error) error {
	conn, err := s.db.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}
