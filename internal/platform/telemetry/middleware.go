package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/motivation-service/telemetry"

// TraceIDHeader carries the request's trace ID back to the caller.
const TraceIDHeader = "X-Trace-ID"

// unmatchedRoute labels requests served by NoRoute: static assets and 404s.
const unmatchedRoute = "unmatched"

// Metrics holds HTTP server instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewMetrics creates HTTP server instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware returns the tracing handler followed by the metrics handler.
// Operational /-/ routes are neither traced nor measured.
func Middleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{
		TracingMiddleware(serviceName),
		MetricsMiddleware(),
	}
}

// TracingMiddleware starts a server span per request via otelgin.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !isOperational(r.URL.Path)
	}))
}

// MetricsMiddleware records request duration and in-flight requests on the
// global meter provider. Instrument errors go to the otel error handler and
// leave the middleware recording nothing.
func MetricsMiddleware() gin.HandlerFunc {
	m, err := NewMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return metricsMiddleware(m)
}

func metricsMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header(TraceIDHeader, traceID)
			c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), traceID))
		}

		if m == nil || isOperational(c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		base := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", routeLabel(c)),
		}

		m.activeRequests.Add(ctx, 1, metric.WithAttributes(base...))
		start := time.Now()

		c.Next()

		m.activeRequests.Add(ctx, -1, metric.WithAttributes(base...))
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			append(base, attribute.Int("http.response.status_code", c.Writer.Status()))...,
		))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	return unmatchedRoute
}

func isOperational(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
