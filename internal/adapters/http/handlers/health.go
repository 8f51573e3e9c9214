// Package handlers holds the gin handlers of the gateway: the motivation
// endpoint and the operational /-/ probes.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/motivation-service/internal/ports"
)

// OperationalPrefix groups the probe routes.
const OperationalPrefix = "/-"

// BuildInfo describes the running binary. It is served on /-/build.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills GoVersion from the runtime.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime, GoVersion: runtime.Version()}
}

// HealthHandler serves liveness, readiness, build info and Prometheus
// metrics.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	gatherer  prometheus.Gatherer

	startedAt time.Time
	now       func() time.Time
}

// NewHealthHandler returns a handler exposing the default Prometheus
// gatherer until WithGatherer replaces it.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	now := time.Now

	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		gatherer:  prometheus.DefaultGatherer,
		startedAt: now(),
		now:       now,
	}
}

// WithGatherer exposes g on /-/metrics. A nil g is ignored.
func (h *HealthHandler) WithGatherer(g prometheus.Gatherer) *HealthHandler {
	if g != nil {
		h.gatherer = g
	}

	return h
}

type livenessResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Liveness reports the process is up. It never runs checks.
func (h *HealthHandler) Liveness(c *gin.Context) {
	uptime := h.now().Sub(h.startedAt).Truncate(time.Second)

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, livenessResponse{Status: "ok", Uptime: uptime.String()})
}

type readinessResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness runs the registered checks. Only an unhealthy result is 503:
// a degraded generator still leaves the gateway answering with the
// fallback quote.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	c.Header("Cache-Control", "no-store")
	c.JSON(readinessCode(result.Status), readinessResponse{
		Status: string(result.Status),
		Checks: result.Checks,
	})
}

func readinessCode(status ports.HealthStatus) int {
	if status == ports.HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}

	return http.StatusOK
}

// BuildInfoHandler serves the BuildInfo.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandlerFor exposes g in the Prometheus text format; nil means the
// default gatherer.
func MetricsHandlerFor(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RegisterHealthRoutes mounts the probes on rg.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	routes := []struct {
		path string
		fn   gin.HandlerFunc
	}{
		{"/live", h.Liveness},
		{"/ready", h.Readiness},
		{"/build", h.BuildInfoHandler},
		{"/metrics", gin.WrapH(MetricsHandlerFor(h.gatherer))},
	}

	for _, r := range routes {
		rg.GET(r.path, r.fn)
	}
}

// RegisterHealthRoutesOnEngine mounts the probes under OperationalPrefix.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group(OperationalPrefix))
}
