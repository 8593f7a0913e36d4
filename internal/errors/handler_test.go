package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
	return problem
}

func TestErrorHandler_HandleError(t *testing.T) {
	type request struct {
		Start string `validate:"required"`
	}
	valErr := validator.New().Struct(request{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, ""},
		{"wrapped cancel", fmt.Errorf("report: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout, ""},
		{"invalid selection", InvalidSelection(fmt.Errorf("bad")), http.StatusBadRequest, TypeSelection, CodeInvalidSelection},
		{"wrapped chart not found", fmt.Errorf("lookup: %w", ChartNotFound("x")), http.StatusNotFound, TypeNotFound, CodeChartNotFound},
		{"unsupported format", UnsupportedFormat("pdf"), http.StatusBadRequest, TypeValidation, CodeUnsupportedFormat},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit, CodeRateLimitExceeded},
		{"validator errors", valErr, http.StatusBadRequest, TypeValidation, ""},
		{"dataset app error", NewDatasetError("not loaded", nil), http.StatusServiceUnavailable, TypeDatasetAbsent, ""},
		{"export app error", NewExportError("write failed", nil), http.StatusInternalServerError, TypeExport, ""},
		{"generic error", fmt.Errorf("something went wrong"), http.StatusInternalServerError, TypeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard/report", nil)
			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			problem := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.Equal(t, "/api/dashboard/report", problem["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
			assert.NotContains(t, problem, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	w := httptest.NewRecorder()
	NewErrorHandler(logger, true).HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, logs.Count())
	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	type request struct {
		Format string `validate:"oneof=csv xlsx parquet"`
	}
	err := validator.New().Struct(request{Format: "pdf"})

	w := httptest.NewRecorder()
	NewErrorHandler(nil, false).HandleError(w, httptest.NewRequest(http.MethodGet, "/x", nil), err)

	problem := decodeProblem(t, w)
	fields, ok := problem["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "Format", fields[0].(map[string]interface{})["field"])
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	handler := NewErrorHandler(nil, true)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/x", nil), fmt.Errorf("boom"))
	assert.Contains(t, decodeProblem(t, w), "stack")

	w = httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/x", nil), ChartNotFound("x"))
	assert.NotContains(t, decodeProblem(t, w), "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		t.Run(fmt.Sprintf("stack=%v", includeStack), func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			w := httptest.NewRecorder()
			NewErrorHandler(logger, includeStack).HandlePanic(w, httptest.NewRequest(http.MethodGet, "/x", nil), "kaboom")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			problem := decodeProblem(t, w)
			assert.Equal(t, TypeInternal, problem["type"])
			if includeStack {
				assert.Equal(t, "kaboom", problem["panic"])
			} else {
				assert.NotContains(t, problem, "panic")
			}
			assert.True(t, logs.ContainsMessage("panic recovered"))
		})
	}
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "DELETE")
}
