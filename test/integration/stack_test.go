//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/motivation-service/internal/adapters/http"
	"github.com/jsamuelsen/motivation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/motivation-service/internal/app"
	"github.com/jsamuelsen/motivation-service/internal/platform/config"
	"github.com/jsamuelsen/motivation-service/internal/platform/metrics"
	"github.com/jsamuelsen/motivation-service/internal/ports"
)

// allowedOrigin is the only browser origin the test stack accepts.
const allowedOrigin = "http://localhost:3000"

// stubReply is one scripted response of the Gemini stub.
type stubReply struct {
	status int
	body   string
	delay  time.Duration
}

// geminiStub is a scripted stand-in for the generateContent endpoint.
// Replies are consumed in order; the last one repeats once the script runs out.
type geminiStub struct {
	server *httptest.Server

	mu      sync.Mutex
	script  []stubReply
	calls   int
	lastKey string
}

func newGeminiStub() *geminiStub {
	s := &geminiStub{}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))

	return s
}

func (s *geminiStub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls++
	s.lastKey = r.URL.Query().Get("key")
	if s.lastKey == "" {
		s.lastKey = r.Header.Get("x-goog-api-key")
	}

	reply := stubReply{status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"unscripted","status":"INTERNAL"}}`}
	if len(s.script) > 0 {
		reply = s.script[0]
		if len(s.script) > 1 {
			s.script = s.script[1:]
		}
	}
	s.mu.Unlock()

	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	_, _ = w.Write([]byte(reply.body))
}

// Script replaces the pending replies and resets the call counter.
func (s *geminiStub) Script(replies ...stubReply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.script = replies
	s.calls = 0
}

// Calls returns the number of requests received since the last Script.
func (s *geminiStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// LastKey returns the API key presented by the most recent request.
func (s *geminiStub) LastKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastKey
}

// Endpoint is the REST generateContent URL served by the stub.
func (s *geminiStub) Endpoint() string {
	return s.server.URL + "/v1beta/models/test-model:generateContent"
}

func (s *geminiStub) Close() {
	s.server.Close()
}

// quoteReply is a 200 whose first candidate part carries a quote payload.
func quoteReply(quote, author string) stubReply {
	payload, _ := json.Marshal(map[string]string{"quote": quote, "author": author})

	return textReply(string(payload))
}

// textReply is a 200 whose first candidate part carries arbitrary text.
func textReply(text string) stubReply {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})

	return stubReply{status: http.StatusOK, body: string(body)}
}

// errorReply is a Google-style error envelope with the given status.
func errorReply(status int) stubReply {
	return stubReply{
		status: status,
		body:   fmt.Sprintf(`{"error":{"code":%d,"message":"upstream failure","status":"UNAVAILABLE"}}`, status),
	}
}

// stackOptions tunes the in-process service.
type stackOptions struct {
	maxAttempts    int
	attemptTimeout time.Duration
	overallTimeout time.Duration
	staticDir      string
}

func defaultStackOptions() stackOptions {
	return stackOptions{
		maxAttempts:    5,
		attemptTimeout: 500 * time.Millisecond,
	}
}

// testStack is the whole service wired against a Gemini stub.
type testStack struct {
	server   *httptest.Server
	registry *prometheus.Registry
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// retryConfig keeps the exponential schedule but in milliseconds.
func retryConfig(maxAttempts int) config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialInterval: 10 * time.Millisecond,
		Multiplier:      2.0,
	}
}

// newGeminiGenerator builds the REST generator pointed at the stub.
func newGeminiGenerator(tb testing.TB, stub *geminiStub) *acl.GeminiQuoteClient {
	tb.Helper()

	client, err := clients.New(&clients.Config{
		BaseURL:     stub.Endpoint(),
		ServiceName: acl.GeminiServiceName,
		Timeout:     5 * time.Second,
		Transport: config.TransportConfig{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 50,
			IdleConnTimeout:     30 * time.Second,
		},
		AuthFunc: clients.QueryKeyAuth("key", "integration-key"),
		Logger:   discardLogger(),
	})
	if err != nil {
		tb.Fatalf("creating client: %v", err)
	}

	return acl.NewGeminiQuoteClient(acl.GeminiQuoteClientConfig{
		Client: client,
		Logger: discardLogger(),
	})
}

// newStack starts the service on an httptest server.
func newStack(tb testing.TB, stub *geminiStub, opts stackOptions) *testStack {
	tb.Helper()

	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()

	quoteMetrics, err := metrics.NewQuoteMetrics(registry)
	if err != nil {
		tb.Fatalf("registering metrics: %v", err)
	}

	generator := newGeminiGenerator(tb, stub)

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(generator); err != nil {
		tb.Fatalf("registering health check: %v", err)
	}

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Generator:      generator,
		MaxAttempts:    opts.maxAttempts,
		AttemptTimeout: opts.attemptTimeout,
		OverallTimeout: opts.overallTimeout,
		Backoff:        clients.NewBackoff(retryConfig(opts.maxAttempts)),
		Metrics:        quoteMetrics,
		Logger:         discardLogger(),
	})

	routerCfg := httpadapter.RouterConfig{
		Logger:            discardLogger(),
		AppConfig:         &config.AppConfig{Name: "motivation-service", Version: "test", Environment: "test"},
		CORS:              &config.CORSConfig{AllowedOrigins: []string{allowedOrigin}, MaxAge: time.Hour},
		HealthHandler:     handlers.NewHealthHandler(healthRegistry, handlers.BuildInfo{Version: "test"}).WithGatherer(registry),
		MotivationHandler: handlers.NewMotivationHandler(service),
	}
	if opts.staticDir != "" {
		routerCfg.Static = httpadapter.NewStaticDir(opts.staticDir)
	}

	engine := gin.New()
	if err := httpadapter.SetupRouter(engine, routerCfg); err != nil {
		tb.Fatalf("setting up router: %v", err)
	}

	server := httptest.NewServer(engine)
	tb.Cleanup(server.Close)

	return &testStack{server: server, registry: registry}
}

// URL returns the absolute URL of path on the stack.
func (s *testStack) URL(path string) string {
	return s.server.URL + path
}

// fetches returns motivation_quote_fetches_total for the given result label.
func (s *testStack) fetches(tb testing.TB, result string) float64 {
	tb.Helper()

	families, err := s.registry.Gather()
	if err != nil {
		tb.Fatalf("gathering metrics: %v", err)
	}

	for _, family := range families {
		if family.GetName() != "motivation_quote_fetches_total" {
			continue
		}

		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
