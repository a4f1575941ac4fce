package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"webscaffold/src/core/domain"
	"webscaffold/src/core/ports"
	"webscaffold/src/infra/db"
	"webscaffold/src/infra/logger"
)

// State is the phase a Runner is in.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateBootstrappingTable
	StateExecuting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateBootstrappingTable:
		return "bootstrapping_table"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Metrics counts executed migration steps. A nil *Metrics records nothing.
type Metrics struct {
	steps *prometheus.CounterVec
}

// NewMetrics registers {namespace}_migrations_executed_total{direction}.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	steps, err := db.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrations_executed_total",
		Help:      "Number of migration steps executed by direction",
	}, []string{"direction"}))
	if err != nil {
		return nil, err
	}
	return &Metrics{steps: steps}, nil
}

func (m *Metrics) inc(direction string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(direction).Inc()
}

// Runner brings the schema up to date by executing catalog migrations that
// the store has not recorded yet.
type Runner struct {
	db      Connector
	store   ports.MigrationStore
	catalog Catalog
	log     *slog.Logger
	metrics *Metrics

	mu    sync.Mutex
	state State
}

var _ ports.MigrationReporter = (*Runner)(nil)

// NewRunner creates a Runner. conn lends connections to migration steps;
// store tracks which migrations have run.
func NewRunner(conn Connector, store ports.MigrationStore, catalog Catalog, log *slog.Logger, metrics *Metrics) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		db:      conn,
		store:   store,
		catalog: catalog,
		log:     logger.WithComponent(log, "migrate"),
		metrics: metrics,
	}
}

// State returns the phase of the last Init.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Init executes every pending migration in catalog order and returns the
// names it executed. A missing bookkeeping table is created once and
// discovery restarted; every other failure stops the run. On failure the
// names executed before it are returned along with the error.
func (r *Runner) Init(ctx context.Context) ([]string, error) {
	var (
		pending      []Migration
		executed     []string
		bootstrapped bool
	)

	r.setState(StateDiscovering)
	for {
		switch r.State() {
		case StateDiscovering:
			p, err := r.pending(ctx)
			switch {
			case err == nil:
				pending = p
				if len(pending) == 0 {
					r.log.Info("database is up to date")
					r.setState(StateDone)
				} else {
					r.setState(StateExecuting)
				}
			case db.IsUndefinedTable(err) && !bootstrapped:
				r.setState(StateBootstrappingTable)
			default:
				r.setState(StateFailed)
				return nil, fmt.Errorf("failed to load pending migrations: %w", err)
			}

		case StateBootstrappingTable:
			bootstrapped = true
			if err := r.store.CreateTable(ctx); err != nil {
				r.setState(StateFailed)
				return nil, err
			}
			r.setState(StateDiscovering)

		case StateExecuting:
			done, err := r.execute(ctx, pending)
			executed = done
			if err != nil {
				r.setState(StateFailed)
				return executed, err
			}
			r.log.Info("executed database migrations", "count", len(executed))
			r.setState(StateDone)

		case StateDone:
			return executed, nil

		default:
			return nil, fmt.Errorf("migration runner in unexpected state %s", r.State())
		}
	}
}

// Pending returns the names of catalog migrations that have not run, in
// catalog order.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	pending, err := r.pending(ctx)
	if err != nil {
		return nil, err
	}
	return Catalog(pending).Names(), nil
}

// Status reports executed and pending migrations.
func (r *Runner) Status(ctx context.Context) (*domain.MigrationStatus, error) {
	executed, err := r.store.Executed(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.MigrationStatus{
		Executed: executed,
		Pending:  Catalog(r.diff(executed)).Names(),
	}, nil
}

// Down reverts the most recently executed catalog migration and removes it
// from the store. It returns the reverted name. Recorded names the catalog
// does not know are skipped.
func (r *Runner) Down(ctx context.Context) (string, error) {
	executed, err := r.store.Executed(ctx)
	if err != nil {
		return "", err
	}

	for i := len(executed) - 1; i >= 0; i-- {
		m, ok := r.catalog.Lookup(executed[i])
		if !ok {
			r.log.Warn("recorded migration not in catalog", "migration", executed[i])
			continue
		}
		r.log.Info("reverting migration", "migration", m.Name)
		if err := r.run(ctx, m.Name, m.Down); err != nil {
			return "", fmt.Errorf("failed to revert migration %s: %w", m.Name, err)
		}
		if err := r.store.UnlogMigration(ctx, m.Name); err != nil {
			return "", err
		}
		r.metrics.inc("down")
		return m.Name, nil
	}
	return "", domain.NewNotFoundError("no executed migration to revert")
}

func (r *Runner) pending(ctx context.Context) ([]Migration, error) {
	executed, err := r.store.Executed(ctx)
	if err != nil {
		return nil, err
	}
	return r.diff(executed), nil
}

func (r *Runner) diff(executed []string) []Migration {
	done := make(map[string]bool, len(executed))
	for _, name := range executed {
		done[name] = true
	}
	var pending []Migration
	for _, m := range r.catalog {
		if !done[m.Name] {
			pending = append(pending, m)
		}
	}
	return pending
}

// execute runs migrations one at a time, recording each before starting
// the next, so an interrupted run leaves exactly the completed prefix.
func (r *Runner) execute(ctx context.Context, migrations []Migration) ([]string, error) {
	executed := make([]string, 0, len(migrations))
	for _, m := range migrations {
		r.log.Info("executing migration", "migration", m.Name)
		if err := r.run(ctx, m.Name, m.Up); err != nil {
			return executed, fmt.Errorf("failed to execute migration %s: %w", m.Name, err)
		}
		if err := r.store.LogMigration(ctx, m.Name); err != nil {
			return executed, err
		}
		r.metrics.inc("up")
		executed = append(executed, m.Name)
	}
	return executed, nil
}

func (r *Runner) run(ctx context.Context, name string, step Step) error {
	if step == nil {
		return nil
	}
	conn, err := r.db.Connect(ctx, db.WithLogger(r.log.With("migration", name)))
	if err != nil {
		return err
	}
	defer conn.Release()
	return step(ctx, conn)
}
