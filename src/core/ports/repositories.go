// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"

	"webscaffold/src/core/domain"
)

// Repository is the base interface for storage adapters.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// DatabaseInspector reports server-side settings of the connected database.
type DatabaseInspector interface {
	Repository

	// Settings returns selected server settings keyed by name.
	Settings(ctx context.Context) (map[string]string, error)
}

// MigrationStore persists which migrations have run.
// It is the only writer of the bookkeeping table.
type MigrationStore interface {
	// Executed returns recorded migration names in ascending order.
	Executed(ctx context.Context) ([]string, error)

	// LogMigration records name. Recording a name twice is an error.
	LogMigration(ctx context.Context, name string) error

	// UnlogMigration removes name. Removing an absent name succeeds.
	UnlogMigration(ctx context.Context, name string) error

	// CreateTable creates the bookkeeping table if it does not exist.
	CreateTable(ctx context.Context) error
}

// MigrationReporter exposes the current schema state.
type MigrationReporter interface {
	Status(ctx context.Context) (*domain.MigrationStatus, error)
}
