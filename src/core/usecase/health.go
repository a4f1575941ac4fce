package usecase

import (
	"context"
	"log/slog"

	"webscaffold/src/core/ports"
)

// HealthService handles health check logic.
type HealthService struct {
	log        *slog.Logger
	db         ports.DatabaseInspector
	migrations ports.MigrationReporter
}

// NewHealthService creates a new HealthService. Either dependency may be nil,
// in which case its component is left out of the report.
func NewHealthService(log *slog.Logger, db ports.DatabaseInspector, migrations ports.MigrationReporter) *HealthService {
	return &HealthService{
		log:        log,
		db:         db,
		migrations: migrations,
	}
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Check performs a health check of all application components.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth),
	}

	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			s.log.Warn("database health check failed", "error", err)
			status.Status = "degraded"
			status.Components["database"] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			component := ComponentHealth{Status: "healthy"}
			if settings, err := s.db.Settings(ctx); err == nil {
				component.Details = settings
			} else {
				component.Message = "settings unavailable: " + err.Error()
			}
			status.Components["database"] = component
		}
	}

	if s.migrations != nil {
		ms, err := s.migrations.Status(ctx)
		switch {
		case err != nil:
			status.Status = "degraded"
			status.Components["migrations"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
		case !ms.UpToDate():
			status.Status = "degraded"
			status.Components["migrations"] = ComponentHealth{Status: "pending", Message: ms.Pending[0] + " has not run"}
		default:
			status.Components["migrations"] = ComponentHealth{Status: "healthy"}
		}
	}

	return status
}
