package migrate

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"webscaffold/src/infra/db"
)

var discard = slog.New(slog.DiscardHandler)

// recordingQuerier remembers executed statements and counts releases.
type recordingQuerier struct {
	mu         *sync.Mutex
	statements *[]string
	releases   *int
}

func (q recordingQuerier) Query(_ context.Context, query string, _ ...any) (*db.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	*q.statements = append(*q.statements, query)
	return &db.Result{}, nil
}

func (q recordingQuerier) Exec(_ context.Context, query string, _ ...any) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	*q.statements = append(*q.statements, query)
	return 0, nil
}

func (q recordingQuerier) Release() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	*q.releases++
	return nil
}

// fakeConnector lends recordingQueriers.
type fakeConnector struct {
	mu         sync.Mutex
	statements []string
	borrows    int
	releases   int
}

func (c *fakeConnector) Connect(context.Context, ...db.Option) (*db.Conn, error) {
	c.mu.Lock()
	c.borrows++
	c.mu.Unlock()
	return db.Instrument(recordingQuerier{mu: &c.mu, statements: &c.statements, releases: &c.releases}, discard, nil), nil
}

// memoryStore is an in-memory MigrationStore. Until tableCreated is set it
// answers like a database without the bookkeeping table.
type memoryStore struct {
	mu            sync.Mutex
	tableCreated  bool
	createCalls   int
	names         []string
	executedErr   error
	keepTableGone bool
}

func newMemoryStore(names ...string) *memoryStore {
	return &memoryStore{tableCreated: true, names: append([]string(nil), names...)}
}

func (s *memoryStore) Executed(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executedErr != nil {
		return nil, s.executedErr
	}
	if !s.tableCreated {
		return nil, &pgconn.PgError{Code: db.SQLStateUndefinedTable, Message: `relation "migrations" does not exist`}
	}
	out := append([]string(nil), s.names...)
	sort.Strings(out)
	return out, nil
}

func (s *memoryStore) LogMigration(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.names {
		if n == name {
			return &pgconn.PgError{Code: db.SQLStateUniqueViolation}
		}
	}
	s.names = append(s.names, name)
	return nil
}

func (s *memoryStore) UnlogMigration(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memoryStore) CreateTable(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if !s.keepTableGone {
		s.tableCreated = true
	}
	return nil
}

// recorded returns names in insertion order.
func (s *memoryStore) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}
