package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/motivation-service/internal/adapters/clients"

// instruments records spans and metrics for outbound calls to one service.
type instruments struct {
	service  string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	calls    metric.Int64Counter
}

func newInstruments(service string) (*instruments, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	calls, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Outbound HTTP requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &instruments{
		service:  service,
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		calls:    calls,
	}, nil
}

// startSpan opens a client span for req and injects the trace context into
// its headers.
func (in *instruments) startSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	ctx, span := in.tracer.Start(ctx, "HTTP "+req.Method+" "+in.service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", redactedURL(req)),
			attribute.String("peer.service", in.service),
		),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return ctx, span
}

// endSpan marks span with the response status or transport error.
func endSpan(span trace.Span, resp *http.Response, err error) {
	defer span.End()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
}

// record counts one call. status is zero when no response arrived.
func (in *instruments) record(ctx context.Context, method string, status int, outcome Outcome, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("peer.service", in.service),
		attribute.String("outcome", string(outcome)),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	in.duration.Record(ctx, elapsed.Seconds(), set)
	in.calls.Add(ctx, 1, set)
}

// statusOutcome buckets a response status as "2xx", "4xx" and so on.
func statusOutcome(status int) Outcome {
	return Outcome(fmt.Sprintf("%dxx", status/100))
}
