package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strakdash/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	assert.NotNil(t, handler)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "invalid parameter",
			err:        ErrInvalidParameter,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "unknown event",
			err:        UnknownEventError("slider_dragged"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnknownEvent,
			wantTitle:  "Bad Request",
		},
		{
			name:       "dataset not found",
			err:        DatasetNotFoundError("nope"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotFound,
			wantTitle:  "Not Found",
		},
		{
			name:       "wrapped network app error",
			err:        fmt.Errorf("load price: %w", NewNetworkError("fetch failed", fmt.Errorf("status 503"))),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeDataLoad,
			wantTitle:  "Data Source Unavailable",
		},
		{
			name:       "app validation error",
			err:        NewAppValidationError("min_year must not exceed max_year"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Validation Failed",
		},
		{
			name:       "plain not found",
			err:        fmt.Errorf("column not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
		},
		{
			name:       "generic error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-1"))

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var problem ProblemDetails
			require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantTitle, problem.Title)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/api/test", problem.Instance)
			assert.Equal(t, "req-1", problem.Extensions["trace_id"])

			assert.True(t, logHandler.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, logHandler.Count())
	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_APIErrorDetails(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard/page1", nil)
	problem := handler.ErrorToProblem(ErrValidation("min_year", "must be >= 2015"), r)

	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "VALIDATION_FAILED", problem.Extensions["error_code"])
	details, ok := problem.Extensions["details"].(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "min_year", details.Errors[0].Field)
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/boom", nil)
	handler.HandlePanic(w, r, "kaboom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var problem ProblemDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
	assert.Equal(t, "kaboom", problem.Extensions["panic"])
	assert.NotEmpty(t, problem.Extensions["stack"])
	assert.True(t, logHandler.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "DELETE")
}

func TestProblemDetails_JSONRoundTrip(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "nope", "/x").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/validation","title":"Bad Request","status":400,"detail":"nope","instance":"/x","error_code":"VALIDATION_FAILED"}`, string(data))

	var back ProblemDetails
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "VALIDATION_FAILED", back.Extensions["error_code"])
	assert.Equal(t, 400, back.Status)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := NewNetworkError("fetch price.csv", cause).WithContext("dataset", "price")

	assert.Equal(t, "[NETWORK] fetch price.csv: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "price", err.Context["dataset"])

	assert.Equal(t, "[NOT_FOUND] dataset x not found", NewNotFoundError("dataset x").Error())
}
