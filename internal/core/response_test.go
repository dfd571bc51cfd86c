package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/types"
)

func TestJSONWritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)

	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"plan": "free"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "free", data["plan"])
}

func TestErrorWritesAppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-123"))

	Error(w, r, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found_profile", resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestErrorHidesGenericErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)

	Error(w, r, errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal_unexpected_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid body", `{"name":"Netflix"}`, ""},
		{"malformed JSON", `{"name":`, "malformed JSON"},
		{"unknown field", `{"name":"Netflix","bogus":1}`, "unknown field"},
		{"empty body", ``, "must not be empty"},
		{"multiple values", `{"name":"a"}{"name":"b"}`, "single JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(tt.body))

			var dst payload
			err := DecodeJSON(w, r, &dst)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Netflix", dst.Name)
				return
			}

			require.Error(t, err)
			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantErr)
		})
	}
}
