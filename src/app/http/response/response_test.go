package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscaffold/src/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, err error) (int, ErrorDetail) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromDomainError(c, err, "req-1")

	var body Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Error
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.NewNotFoundError("no executed migration to revert"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", domain.NewValidationError("name", "too long"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", domain.NewConflictError("duplicate migration"), http.StatusConflict, "CONFLICT"},
		{"internal", domain.NewInternalError("expected a single result but got 2 results"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"driver", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := render(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, detail.Code)
			assert.Equal(t, "req-1", detail.RequestID)
		})
	}
}

func TestFromDomainError_WrappedValidationKeepsField(t *testing.T) {
	err := fmt.Errorf("load catalog: %w", domain.NewValidationError("name", "too long"))

	status, detail := render(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name", detail.Field)
	assert.Equal(t, "too long", detail.Message)
}

func TestFromDomainError_InternalInvariantHidesDetails(t *testing.T) {
	err := fmt.Errorf("health: %w", domain.NewInternalError("expected a single result but got 2 results"))

	status, detail := render(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "An internal consistency check failed", detail.Message)
	assert.NotContains(t, detail.Message, "2 results")
}

func TestInternalErrorHidesDetails(t *testing.T) {
	status, detail := render(t, errors.New("password authentication failed for user root"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, detail.Message, "password")
}
