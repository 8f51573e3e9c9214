package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/motivation-service/internal/mocks"
	"github.com/jsamuelsen/motivation-service/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func healthRouter(h *HealthHandler) *gin.Engine {
	router := gin.New()
	h.RegisterHealthRoutesOnEngine(router)

	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.0.0", "abc123", "2026-01-15T10:00:00Z")

	assert.Equal(t, BuildInfo{
		Version:   "1.0.0",
		Commit:    "abc123",
		BuildTime: "2026-01-15T10:00:00Z",
		GoVersion: runtime.Version(),
	}, bi)
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{})
	h.startedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return h.startedAt.Add(90*time.Second + 400*time.Millisecond) }

	w := get(healthRouter(h), "/-/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp livenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, livenessResponse{Status: "ok", Uptime: "1m30s"}, resp)
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		result     *ports.HealthResult
		wantStatus int
		wantBody   string
	}{
		{
			name: "all checks healthy",
			result: &ports.HealthResult{
				Status: ports.HealthStatusHealthy,
				Checks: map[string]*ports.CheckResult{
					"gemini": {Status: ports.HealthStatusHealthy},
					"static": {Status: ports.HealthStatusHealthy, Critical: true},
				},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"healthy"`,
		},
		{
			name: "generator breaker open",
			result: &ports.HealthResult{
				Status: ports.HealthStatusDegraded,
				Checks: map[string]*ports.CheckResult{
					"gemini": {Status: ports.HealthStatusUnhealthy, Message: "circuit breaker open"},
				},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"degraded"`,
		},
		{
			name: "static directory missing",
			result: &ports.HealthResult{
				Status: ports.HealthStatusUnhealthy,
				Checks: map[string]*ports.CheckResult{
					"static": {Status: ports.HealthStatusUnhealthy, Critical: true, Message: "directory missing"},
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "directory missing",
		},
		{
			name:       "no checks registered",
			result:     &ports.HealthResult{Status: ports.HealthStatusHealthy, Checks: map[string]*ports.CheckResult{}},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"healthy"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockHealthRegistry(t)
			registry.EXPECT().CheckAll(mock.Anything).Return(tt.result).Once()

			w := get(healthRouter(NewHealthHandler(registry, BuildInfo{})), "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		})
	}
}

func TestHealthHandler_Build(t *testing.T) {
	buildInfo := BuildInfo{
		Version:   "1.2.3",
		Commit:    "def456",
		BuildTime: "2026-02-01T12:00:00Z",
		GoVersion: "go1.25.7",
	}

	w := get(healthRouter(NewHealthHandler(mocks.NewMockHealthRegistry(t), buildInfo)), "/-/build")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, buildInfo, resp)
}

func TestHealthHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "motivation_test_total",
		Help: "test counter",
	})
	reg.MustRegister(counter)
	counter.Inc()

	t.Run("custom gatherer", func(t *testing.T) {
		h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}).WithGatherer(reg)
		w := get(healthRouter(h), "/-/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Contains(t, w.Body.String(), "motivation_test_total 1")
		assert.NotContains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("nil gatherer keeps default", func(t *testing.T) {
		h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}).WithGatherer(nil)
		w := get(healthRouter(h), "/-/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("handler for nil gatherer", func(t *testing.T) {
		w := get(MetricsHandlerFor(nil), "/-/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealthHandler_RegisterHealthRoutes(t *testing.T) {
	router := gin.New()
	NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}).RegisterHealthRoutes(router.Group("/-"))

	got := make(map[string]bool)
	for _, r := range router.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{"GET /-/live", "GET /-/ready", "GET /-/build", "GET /-/metrics"} {
		assert.True(t, got[want], "missing route: %s", want)
	}
}
