package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askadoc/askadoc/internal/domain"
)

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", domain.ErrEmptyQuestion, http.StatusBadRequest},
		{"no context", domain.ErrNoContext, http.StatusBadRequest},
		{"extraction", domain.ErrEmptyExtraction, http.StatusBadRequest},
		{"not found", domain.ErrDocumentNotFound, http.StatusNotFound},
		{"already exists", domain.ErrUserAlreadyExists, http.StatusConflict},
		{"unauthorized", domain.ErrInvalidAPIKey, http.StatusUnauthorized},
		{"upstream", domain.ErrUpstream, http.StatusBadGateway},
		{"upstream timeout", domain.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{"internal", domain.NewDomainError(domain.ErrCodeInternalError, "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "db write failed", errors.New("connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestHandleError_KeepsUpstreamMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, domain.ErrUpstream)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "language model is currently unavailable")
}

func TestHandleError_UserFacingMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, domain.ErrNoContext)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "please upload a document first")
}
