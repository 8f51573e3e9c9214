// Package metrics exposes Prometheus instruments for the quote retry loop.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "motivation"

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeUpstream  = "upstream_error"
	OutcomeMalformed = "malformed_response"
	OutcomeError     = "error"
)

// Fetch results.
const (
	ResultSuccess   = "success"
	ResultExhausted = "exhausted"
	ResultDeadline  = "deadline"
)

// QuoteMetrics records per-attempt and per-fetch counters plus backoff
// timing. A nil *QuoteMetrics is valid and records nothing.
type QuoteMetrics struct {
	attempts      *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchAttempts prometheus.Histogram
	backoff       prometheus.Histogram
}

// NewQuoteMetrics creates the instruments and registers them on reg.
func NewQuoteMetrics(reg prometheus.Registerer) (*QuoteMetrics, error) {
	m := &QuoteMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "attempts_total",
			Help:      "Upstream generation attempts by outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "fetches_total",
			Help:      "Quote fetches by final result.",
		}, []string{"result"}),
		fetchAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "fetch_attempts",
			Help:      "Attempts consumed per quote fetch.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		backoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "backoff_seconds",
			Help:      "Delay slept between generation attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.fetches, m.fetchAttempts, m.backoff} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering quote metrics: %w", err)
		}
	}

	return m, nil
}

// ObserveAttempt counts one upstream attempt.
func (m *QuoteMetrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}

	m.attempts.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the result of a whole fetch and how many attempts it took.
func (m *QuoteMetrics) ObserveFetch(result string, attempts int) {
	if m == nil {
		return
	}

	m.fetches.WithLabelValues(result).Inc()
	m.fetchAttempts.Observe(float64(attempts))
}

// ObserveBackoff records one inter-attempt delay.
func (m *QuoteMetrics) ObserveBackoff(d time.Duration) {
	if m == nil {
		return
	}

	m.backoff.Observe(d.Seconds())
}
