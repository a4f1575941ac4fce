package dto

import "webscaffold/src/core/domain"

// MigrationStatusResponse is returned by GET /v1/migrations.
type MigrationStatusResponse struct {
	UpToDate bool     `json:"up_to_date"`
	Executed []string `json:"executed"`
	Pending  []string `json:"pending"`
}

// FromDomain builds the response from a status snapshot.
func (MigrationStatusResponse) FromDomain(s *domain.MigrationStatus) MigrationStatusResponse {
	return MigrationStatusResponse{
		UpToDate: s.UpToDate(),
		Executed: s.Executed,
		Pending:  s.Pending,
	}
}
