package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnbpulse/internal/config"
	"bnbpulse/internal/infrastructure"
	"bnbpulse/internal/services"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Analysis.MaxPrice = 1000

	paths := &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		ReportsDir: filepath.Join(base, "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := infrastructure.NewMetrics()

	a := &Application{
		Config:   cfg,
		Paths:    paths,
		Logger:   logger,
		Metrics:  metrics,
		Analysis: services.NewAnalysisService(cfg, paths, logger, metrics),
	}
	a.setupRouter()
	return a
}

func TestRouterHealthEndpoint(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestRouterMetricsEndpoint(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bnbpulse_")
}

func TestRouterSetsRequestID(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterSecurityHeaders(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterAnalysisBeforeLoad(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/internal")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := newTestApplication(t)
	a.Server = &http.Server{Addr: "127.0.0.1:0", Handler: a.Router}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancellation is an orderly stop, not an error.
	require.NoError(t, a.Run(ctx))
}

func TestRouterUnknownRoute(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
