package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"strakdash/internal/dashboard"
	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
	"strakdash/internal/middleware"
	"strakdash/internal/services"
	"strakdash/internal/shared/testutil"
	"strakdash/internal/sources"
)

func fixtureService(t *testing.T) *services.DashboardService {
	t.Helper()
	return fixtureServiceWith(t, nil)
}

// fixtureServiceWith builds the service from the fixtures with some bodies replaced
func fixtureServiceWith(t *testing.T, overrides map[string]string) *services.DashboardService {
	t.Helper()
	cat := sources.DefaultCatalog()
	tables := sources.Tables{}
	for name, body := range testutil.FixtureCSV {
		if o, ok := overrides[name]; ok {
			body = o
		}
		raw, err := sources.ReadCSV(strings.NewReader(body))
		require.NoError(t, err)
		e, ok := cat.Entry(name)
		require.True(t, ok, name)
		tbl, err := dataset.Normalize(raw, e.Normalize)
		require.NoError(t, err)
		tables[name] = tbl
	}
	store, err := dashboard.NewStore(tables)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	return services.NewDashboardService(store, cat, nil, logger)
}

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Pages(ctx context.Context) []dashboard.Tab {
	return m.Called().Get(0).([]dashboard.Tab)
}

func (m *MockDashboardService) Page1(ctx context.Context, minYear, maxYear *int) (*dashboard.Page1, error) {
	args := m.Called(minYear, maxYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Page1), args.Error(1)
}

func (m *MockDashboardService) Page2(ctx context.Context) (*dashboard.Page2, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Page2), args.Error(1)
}

func (m *MockDashboardService) Dispatch(ctx context.Context, ev dashboard.Event) (*dashboard.Result, error) {
	args := m.Called(ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Result), args.Error(1)
}

func (m *MockDashboardService) Datasets(ctx context.Context) ([]services.DatasetSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.DatasetSummary), args.Error(1)
}

func (m *MockDashboardService) Dataset(ctx context.Context, q services.DatasetQuery) (*dataset.Table, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Table), args.Error(1)
}

func newRouter(t *testing.T, svc DashboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	eh := apperrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/dashboard", NewDashboardHandler(svc, logger, eh).Routes())
	r.Mount("/api/datasets", NewDatasetHandler(svc, logger, eh).Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestDashboardHandler_Pages(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	rec := do(t, h, http.MethodGet, "/api/dashboard/pages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])
}

func TestDashboardHandler_Page1(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "full range by default",
			target:     "/api/dashboard/page1",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				totals := data["loss_totals"].(map[string]interface{})
				assert.Equal(t, float64(750), totals["total"])
				stats := data["price_stats"].(map[string]interface{})
				assert.Equal(t, float64(14), stats["avg_close"])
			},
		},
		{
			name:       "single year",
			target:     "/api/dashboard/page1?min_year=2020&max_year=2020",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				totals := data["loss_totals"].(map[string]interface{})
				assert.Equal(t, float64(220), totals["total"])
			},
		},
		{
			name:       "non-integer bound",
			target:     "/api/dashboard/page1?min_year=abc&max_year=2020",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "outside domain",
			target:     "/api/dashboard/page1?min_year=2000&max_year=2020",
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apperrors.TypeValidation, body["type"])
			},
		},
		{
			name:       "inverted",
			target:     "/api/dashboard/page1?min_year=2021&max_year=2019",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decode(t, rec))
			}
		})
	}
}

func TestDashboardHandler_Page2(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	rec := do(t, h, http.MethodGet, "/api/dashboard/page2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	figures := data["figures"].([]interface{})
	require.Len(t, figures, 6)
	assert.Equal(t, dashboard.FigShareholders, figures[0].(map[string]interface{})["id"])
}

func TestDashboardHandler_PostEvent(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTab    string
	}{
		{"range changed", `{"type":"range_changed","min_year":2019,"max_year":2020}`, http.StatusOK, dashboard.TabPage1},
		{"page 2 tab", `{"type":"tab_selected","tab":"page-2"}`, http.StatusOK, dashboard.TabPage2},
		{"unknown event", `{"type":"zoom"}`, http.StatusBadRequest, ""},
		{"missing type", `{"tab":"page-1"}`, http.StatusBadRequest, ""},
		{"missing range", `{"type":"range_changed"}`, http.StatusBadRequest, ""},
		{"page 1 tab with full range", `{"type":"tab_selected","tab":"page-1","min_year":2020,"max_year":2021}`, http.StatusOK, dashboard.TabPage1},
		{"page 1 tab with half range", `{"type":"tab_selected","tab":"page-1","min_year":2020}`, http.StatusBadRequest, ""},
		{"malformed json", `{"type":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/dashboard/events", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantTab != "" {
				data := decode(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, tt.wantTab, data["tab"])
			}
		})
	}
}

func TestDashboardHandler_UnknownEventProblem(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	rec := do(t, h, http.MethodPost, "/api/dashboard/events", `{"type":"zoom"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperrors.TypeUnknownEvent, body["type"])
	assert.Equal(t, "UNKNOWN_EVENT", body["error_code"])
}

func TestDashboardHandler_ServiceError(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Page2").Return(nil, errors.New("boom"))
	h := newRouter(t, svc)

	rec := do(t, h, http.MethodGet, "/api/dashboard/page2", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	svc.AssertExpectations(t)
}

func TestDatasetHandler_List(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	rec := do(t, h, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(9), body["count"])
}

func TestDatasetHandler_Get(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  float64
	}{
		{"whole table", "/api/datasets/loss", http.StatusOK, 3},
		{"filtered", "/api/datasets/price?min_year=2019&max_year=2019", http.StatusOK, 2},
		{"explicit year column", "/api/datasets/capacity?min_year=2020&max_year=2020&year_column=year", http.StatusOK, 2},
		{"unknown dataset", "/api/datasets/unknown", http.StatusNotFound, 0},
		{"invalid name", "/api/datasets/Bad-Name", http.StatusBadRequest, 0},
		{"half range", "/api/datasets/loss?min_year=2019", http.StatusBadRequest, 0},
		{"negative year", "/api/datasets/loss?min_year=-1&max_year=2019", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantCount, decode(t, rec)["count"])
			}
		})
	}
}

func TestDatasetHandler_BuddhistEraYears(t *testing.T) {
	h := newRouter(t, fixtureServiceWith(t, map[string]string{
		"financial": `year,value,type
2560,1000,asset
2561,600,liability
2564,1100,asset
`,
	}))

	rec := do(t, h, http.MethodGet, "/api/datasets/financial?min_year=2560&max_year=2564", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(3), decode(t, rec)["count"])

	rec = do(t, h, http.MethodGet, "/api/datasets/financial?min_year=2561&max_year=2563", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = do(t, h, http.MethodGet, "/api/datasets/financial/export/csv?min_year=2564&max_year=2564", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "year,value,type\n2564,1100,asset\n", rec.Body.String())
}

func TestDatasetHandler_Export(t *testing.T) {
	h := newRouter(t, fixtureService(t))

	rec := do(t, h, http.MethodGet, "/api/datasets/loss/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="loss.csv"`)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Year,institutional_loan,pp,bond_value,common_stock\n"))
	assert.Contains(t, rec.Body.String(), "2020,0,200,0,20\n")

	rec = do(t, h, http.MethodGet, "/api/datasets/loss/export/xlsx?min_year=2020&max_year=2021", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = do(t, h, http.MethodGet, "/api/datasets/price/export/parquet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PAR1")))

	rec = do(t, h, http.MethodGet, "/api/datasets/loss/export/pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.TypeUnsupportedFormat, decode(t, rec)["type"])
}

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := services.NewHealthService("1.0.0", "", fixtureService(t), nil, logger)
	h := NewHealthHandler(hs, logger)

	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)

	rec := do(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = do(t, r, http.MethodGet, "/api/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decode(t, rec)["status"])

	rec = do(t, r, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no websocket hub")
	assert.Equal(t, "not_ready", decode(t, rec)["status"])

	rec = do(t, r, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0.0", decode(t, rec)["version"])
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := apperrors.NewErrorHandler(logger, false)

	prom := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP up\n"))
	})
	rec := do(t, NewMetricsHandler(prom, eh).Routes(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")

	rec = do(t, NewMetricsHandler(nil, eh).Routes(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndexHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := apperrors.NewErrorHandler(logger, false)
	h := NewIndexHandler(PageData{Title: "Strak <Dashboard>", Version: "1.0.0"}, logger, eh)

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Strak &lt;Dashboard&gt;</title>")
	assert.Contains(t, body, "cdn.plot.ly")
	assert.Contains(t, body, "v1.0.0")
}
