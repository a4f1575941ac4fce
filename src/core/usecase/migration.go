package usecase

import (
	"context"
	"log/slog"

	"webscaffold/src/core/domain"
	"webscaffold/src/core/ports"
)

// MigrationService exposes the schema state to the API.
type MigrationService struct {
	reporter ports.MigrationReporter
	log      *slog.Logger
}

// NewMigrationService creates a new MigrationService.
func NewMigrationService(reporter ports.MigrationReporter, log *slog.Logger) *MigrationService {
	return &MigrationService{reporter: reporter, log: log}
}

// Status returns executed and pending migrations.
func (s *MigrationService) Status(ctx context.Context) (*domain.MigrationStatus, error) {
	status, err := s.reporter.Status(ctx)
	if err != nil {
		s.log.Error("failed to read migration status", "error", err)
		return nil, err
	}
	if status.Executed == nil {
		status.Executed = []string{}
	}
	if status.Pending == nil {
		status.Pending = []string{}
	}
	return status, nil
}
