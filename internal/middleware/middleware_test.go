package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "strakdash/internal/errors"
	"strakdash/internal/infrastructure"
	"strakdash/internal/shared/testutil"
)

func newErrorHandler() *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	var seen, traced string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
		traced = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, traced)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", seen)
	assert.Equal(t, "caller-id", GetRequestID(context.WithValue(context.Background(), chimw.RequestIDKey, "caller-id")))
}

func TestStructuredLogger(t *testing.T) {
	logger, store := testutil.NewTestLogger(t)
	h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/datasets/nope", nil))

	assert.True(t, store.ContainsMessage("request completed"))
	assert.True(t, store.ContainsAttr("status", int64(404)))
	assert.Len(t, store.GetRecordsByLevel(slog.LevelWarn), 1)
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(newErrorHandler())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, apperrors.TypeInternal, body["type"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, slog.New(slog.NewTextHandler(io.Discard, nil)), newErrorHandler())
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Equal(t, apperrors.TypeRateLimit, decodeProblem(t, rec)["type"])
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rec := httptest.NewRecorder()
	Timeout(10*time.Millisecond, newErrorHandler())(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, apperrors.TypeTimeout, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	Timeout(time.Second, newErrorHandler())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://dash.test"}})(okHandler)

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "http://dash.test", false, 200, "http://dash.test"},
		{"other origin", http.MethodGet, "http://evil.test", false, 200, ""},
		{"preflight", http.MethodOptions, "http://dash.test", true, 204, "http://dash.test"},
		{"bare options", http.MethodOptions, "http://dash.test", false, 200, "http://dash.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://cdn.plot.ly")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestValidateRequest(t *testing.T) {
	vm := NewValidationMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)), newErrorHandler())

	var got string
	h := vm.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"tab_selected"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"type":"tab_selected"}`, got, "body is replayed to the handler")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", decodeProblem(t, rec)["error_code"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`"`+strings.Repeat("x", 70*1024)+`"`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestValidateStruct(t *testing.T) {
	vm := NewValidationMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)), newErrorHandler())

	type query struct {
		Name    string `json:"name" validate:"required,dataset"`
		MinYear int    `json:"min_year" validate:"gte=1900"`
		MaxYear int    `json:"max_year" validate:"gtefield=MinYear"`
	}

	assert.NoError(t, vm.ValidateStruct(query{Name: "stark_sh", MinYear: 2019, MaxYear: 2021}))

	err := vm.ValidateStruct(query{Name: "Bad Name", MinYear: 2021, MaxYear: 2019})
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	details, ok := apiErr.Details.(apperrors.ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 2)
	assert.Equal(t, "name", details.Errors[0].Field)
	assert.Equal(t, "name must be a dataset name", details.Errors[0].Message)
	assert.Equal(t, "max_year", details.Errors[1].Field)
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator(newErrorHandler(), "application/json")(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryParamValidator(t *testing.T) {
	qv := NewQueryParamValidator(newErrorHandler())

	rec := httptest.NewRecorder()
	v, ok := qv.OptionalInt(rec, httptest.NewRequest(http.MethodGet, "/?min_year=2020", nil), "min_year")
	require.True(t, ok)
	assert.Equal(t, 2020, *v)

	v, ok = qv.OptionalInt(rec, httptest.NewRequest(http.MethodGet, "/", nil), "min_year")
	assert.True(t, ok)
	assert.Nil(t, v)

	rec = httptest.NewRecorder()
	_, ok = qv.OptionalInt(rec, httptest.NewRequest(http.MethodGet, "/?min_year=abc", nil), "min_year")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f, ok := qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/", nil), "format", []string{"csv", "xlsx"}, "csv")
	assert.True(t, ok)
	assert.Equal(t, "csv", f)

	_, ok = qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?format=pdf", nil), "format", []string{"csv", "xlsx"}, "csv")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOTelMiddleware(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.NewDashboardMetrics(providers.Meter)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(providers, metrics).Handler)
	r.Get("/api/datasets/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/datasets/loss", nil))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/datasets/{name}"`)
	assert.Contains(t, body, "http_request_duration_seconds")
}
