package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")

	assert.Equal(t, "Session not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", err.ErrorCode)
}

func TestSessionNotFoundError(t *testing.T) {
	err := SessionNotFoundError("abc-123")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", err.ErrorCode)
	assert.Contains(t, err.Message, "abc-123")
	assert.Equal(t, "abc-123", err.Details)
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusBadRequest,
		TypeValidation,
		"Validation Failed",
		"chart_type must be one of line, cumulative",
		"/api/v1/chart/generate",
	).WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeValidation, decoded["type"])
	assert.Equal(t, "Validation Failed", decoded["title"])
	assert.Equal(t, float64(http.StatusBadRequest), decoded["status"])
	assert.Equal(t, "/api/v1/chart/generate", decoded["instance"])
	assert.Equal(t, "VALIDATION_FAILED", decoded["error_code"])
}

func TestProblemDetailsMarshalOmitsEmptyFields(t *testing.T) {
	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", "", "")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasDetail := decoded["detail"]
	_, hasInstance := decoded["instance"]
	assert.False(t, hasDetail)
	assert.False(t, hasInstance)
}

func TestErrorToProblem(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/xyz", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "session not found maps to domain type",
			err:        SessionNotFoundError("xyz"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSessionNotFound,
		},
		{
			name:       "series not found",
			err:        ErrSeriesNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeSeriesNotFound,
		},
		{
			name:       "validation error",
			err:        NewValidationError("width out of range"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "processing error",
			err:        NewProcessingError("no numeric data", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeProcessing,
		},
		{
			name:       "payload too large",
			err:        ErrPayloadTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "render failure",
			err:        ErrRenderFailed,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeRenderFailed,
		},
		{
			name:       "context deadline becomes timeout",
			err:        fmt.Errorf("render: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "plain not-found text maps to 404",
			err:        errors.New("series not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, req)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/v1/data/xyz", problem.Instance)
		})
	}
}

func TestHandleErrorWritesProblemJSON(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/missing", nil)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, SessionNotFoundError("missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeSessionNotFound, decoded["type"])
	assert.Equal(t, "SESSION_NOT_FOUND", decoded["error_code"])
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something broke")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upload/", nil)
	rec := httptest.NewRecorder()

	handler.Middleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeInternal, decoded["type"])
}
