package types

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"validation maps to 400", ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{"auth maps to 401", ErrCodeAuthTokenMissing, http.StatusUnauthorized},
		{"not found maps to 404", ErrCodeNotFoundProfile, http.StatusNotFound},
		{"conflict maps to 409", ErrCodeConflictEmail, http.StatusConflict},
		{"upstream maps to 502", ErrCodeUpstreamStripe, http.StatusBadGateway},
		{"internal maps to 500", ErrCodeInternalDB, http.StatusInternalServerError},
		{"unknown maps to 500", ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	appErr := NewAppError(ErrCodeInternalDB, "query failed", inner)

	require.ErrorIs(t, appErr, inner)
	assert.Equal(t, "internal_database_error: query failed", appErr.Error())
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus())
}

func TestAppErrorDetails(t *testing.T) {
	appErr := NewAppErrorWithDetails(ErrCodeValidationInvalidField, "invalid input", nil,
		map[string]any{"field": "currency"})

	assert.Equal(t, "currency", appErr.Details["field"])
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
}
