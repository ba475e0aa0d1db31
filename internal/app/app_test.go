package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"strakdash/internal/config"
	"strakdash/internal/infrastructure"
	"strakdash/internal/shared/testutil"
	"strakdash/internal/sources"
)

// writeCatalog points the built-in catalog at the fixture server's file names
func writeCatalog(t *testing.T, override map[string]string) string {
	t.Helper()

	cat := sources.DefaultCatalog()
	cat.BaseURL = ""
	for i := range cat.Datasets {
		src := cat.Datasets[i].Name + ".csv"
		if o, ok := override[cat.Datasets[i].Name]; ok {
			src = o
		}
		cat.Datasets[i].Source = src
	}

	data, err := yaml.Marshal(cat)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testConfig(t *testing.T, srv *httptest.Server, override map[string]string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.CatalogFile = writeCatalog(t, override)
	cfg.Data.BaseURL = srv.URL
	cfg.Data.FetchTimeout = 5 * time.Second
	cfg.Server.Port = 0
	return cfg
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	srv := testutil.FixtureServer(t)
	logger, _ := testutil.NewTestLogger(t)

	a, err := New(context.Background(), testConfig(t, srv, nil), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return a
}

func get(t *testing.T, base, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(base + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew_LoadsStore(t *testing.T) {
	a := newTestApp(t)

	require.NotNil(t, a.Store)
	assert.Contains(t, a.Store.Names(), "merged")
	assert.True(t, a.Dashboard.Ready())
	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
}

func TestNew_LoadFailureAborts(t *testing.T) {
	srv := testutil.FixtureServer(t)
	logger, _ := testutil.NewTestLogger(t)

	cfg := testConfig(t, srv, map[string]string{"price": "missing.csv"})
	_, err := New(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load datasets")
}

func TestNewApplication_LogsToConfiguredFile(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	srv := testutil.FixtureServer(t)
	cfg := testConfig(t, srv, nil)
	cfg.Logging.Level = "info"
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "logs", "strakdash.log")

	a, err := NewApplication(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, infrastructure.CloseLogFile())

	data, err := os.ReadFile(cfg.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Application starting")
}

func TestCatalog(t *testing.T) {
	cat, err := Catalog(config.DataConfig{})
	require.NoError(t, err)
	assert.Equal(t, sources.DefaultBaseURL, cat.BaseURL)

	cat, err = Catalog(config.DataConfig{BaseURL: "http://mirror.local/"})
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.local/", cat.BaseURL)

	_, err = Catalog(config.DataConfig{CatalogFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestRouter_Endpoints(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/api/health", http.StatusOK, `"status":"ok"`},
		{"/api/health/ready", http.StatusOK, "datasets loaded"},
		{"/api/health/live", http.StatusOK, "alive"},
		{"/api/version", http.StatusOK, config.AppVersion},
		{"/api/dashboard/pages", http.StatusOK, "page-1"},
		{"/api/dashboard/page1?min_year=2020&max_year=2020", http.StatusOK, `"status":"success"`},
		{"/api/dashboard/page1?min_year=1990&max_year=1991", http.StatusBadRequest, "max_year"},
		{"/api/dashboard/page2", http.StatusOK, "stacked-bar-chart"},
		{"/api/datasets", http.StatusOK, `"name":"loss"`},
		{"/api/datasets/loss?min_year=2020&max_year=2021", http.StatusOK, `"count":2`},
		{"/api/datasets/unknown", http.StatusNotFound, "DATASET_NOT_FOUND"},
		{"/metrics", http.StatusOK, "dataset_rows"},
		{"/", http.StatusOK, "<html"},
		{"/nowhere", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL, tt.path)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			if tt.want != "" {
				assert.Contains(t, body, tt.want)
			}
		})
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	resp, _ := get(t, srv.URL, "/api/health")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_ExportCSV(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	resp, body := get(t, srv.URL, "/api/datasets/loss/export/csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "loss.csv")
	assert.True(t, strings.HasPrefix(body, "Year,institutional_loan,pp,bond_value,common_stock"))
}

func TestRouter_WebSocketEvent(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "connection", welcome["type"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "tab_selected", "tab": "page-2"}))

	var reply struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "tab_selected:result", reply.Type)
	assert.Contains(t, string(reply.Data), `"tab":"page-2"`)

	assert.Eventually(t, func() bool { return a.WebSocketHub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	a := newTestApp(t)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
