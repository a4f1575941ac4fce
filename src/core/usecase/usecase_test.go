package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscaffold/src/core/domain"
)

var discard = slog.New(slog.DiscardHandler)

type fakeDatabase struct {
	healthErr   error
	settings    map[string]string
	settingsErr error
}

func (f *fakeDatabase) Health(context.Context) error { return f.healthErr }

func (f *fakeDatabase) Settings(context.Context) (map[string]string, error) {
	return f.settings, f.settingsErr
}

type fakeReporter struct {
	status *domain.MigrationStatus
	err    error
}

func (f *fakeReporter) Status(context.Context) (*domain.MigrationStatus, error) {
	return f.status, f.err
}

func TestHealthService_AllHealthy(t *testing.T) {
	db := &fakeDatabase{settings: map[string]string{"server_encoding": "UTF8"}}
	migrations := &fakeReporter{status: &domain.MigrationStatus{Executed: []string{"001-init"}}}

	status := NewHealthService(discard, db, migrations).Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "healthy", status.Components["database"].Status)
	assert.Equal(t, "UTF8", status.Components["database"].Details["server_encoding"])
	assert.Equal(t, "healthy", status.Components["migrations"].Status)
}

func TestHealthService_DatabaseDown(t *testing.T) {
	db := &fakeDatabase{healthErr: errors.New("connection refused")}

	status := NewHealthService(discard, db, nil).Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Components["database"].Status)
	assert.Equal(t, "connection refused", status.Components["database"].Message)
	assert.NotContains(t, status.Components, "migrations")
}

func TestHealthService_SettingsUnavailableStaysHealthy(t *testing.T) {
	db := &fakeDatabase{settingsErr: errors.New("permission denied")}

	status := NewHealthService(discard, db, nil).Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "healthy", status.Components["database"].Status)
	assert.Contains(t, status.Components["database"].Message, "permission denied")
}

func TestHealthService_PendingMigrations(t *testing.T) {
	migrations := &fakeReporter{status: &domain.MigrationStatus{Pending: []string{"002-users", "003-orders"}}}

	status := NewHealthService(discard, nil, migrations).Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "pending", status.Components["migrations"].Status)
	assert.Equal(t, "002-users has not run", status.Components["migrations"].Message)
}

func TestHealthService_MigrationStatusError(t *testing.T) {
	migrations := &fakeReporter{err: errors.New("relation does not exist")}

	status := NewHealthService(discard, nil, migrations).Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Components["migrations"].Status)
}

func TestHealthService_NoComponents(t *testing.T) {
	status := NewHealthService(discard, nil, nil).Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Empty(t, status.Components)
}

func TestMigrationService_Status(t *testing.T) {
	svc := NewMigrationService(&fakeReporter{status: &domain.MigrationStatus{}}, discard)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, status.Executed)
	assert.NotNil(t, status.Pending)
	assert.True(t, status.UpToDate())
}

func TestMigrationService_StatusError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewMigrationService(&fakeReporter{err: boom}, discard)

	_, err := svc.Status(context.Background())
	assert.ErrorIs(t, err, boom)
}
