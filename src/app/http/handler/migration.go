package handler

import (
	"github.com/gin-gonic/gin"

	"webscaffold/src/app/http/dto"
	"webscaffold/src/app/http/response"
	"webscaffold/src/app/middleware"
	"webscaffold/src/core/usecase"
)

// MigrationHandler exposes the schema state.
type MigrationHandler struct {
	service *usecase.MigrationService
}

// NewMigrationHandler creates a new MigrationHandler.
func NewMigrationHandler(service *usecase.MigrationService) *MigrationHandler {
	return &MigrationHandler{service: service}
}

// Status lists executed and pending migrations.
// GET /v1/migrations
func (h *MigrationHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	response.OK(c, dto.MigrationStatusResponse{}.FromDomain(status))
}
