package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/motivation-service/internal/platform/config"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the endpoint. Paths passed to Post are appended to it and
	// an empty path targets BaseURL itself.
	BaseURL string

	// ServiceName names the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds one request. A shorter context deadline wins.
	Timeout time.Duration

	// Circuit is only consulted when Circuit.Enabled is set.
	Circuit config.CircuitBreakerConfig

	Transport config.TransportConfig

	// AuthFunc, if set, decorates every outgoing request.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client sends single, instrumented requests to one downstream service.
// It never retries; retry policy belongs to the caller.
type Client struct {
	http    *http.Client
	baseURL string
	auth    func(*http.Request)
	logger  *slog.Logger
	cb      *CircuitBreaker
	obs     *instruments
}

// New creates a Client. A zero Timeout becomes 30s.
func New(cfg *Config) (*Client, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case cfg.ServiceName == "":
		return nil, errors.New("service name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs, err := newInstruments(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(cfg.Transport),
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		auth:    cfg.AuthFunc,
		logger:  logger,
		cb:      NewCircuitBreakerFromConfig(cfg.Circuit, logger.With(slog.String("downstream", cfg.ServiceName))),
		obs:     obs,
	}, nil
}

// newTransport clones the default transport and applies the non-zero pool
// settings.
func newTransport(cfg config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}

// Post sends body as JSON to the base URL joined with path.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req)
}

// Do sends req once. Every response is returned, whatever its status.
// The error is ErrCircuitOpen when the breaker refuses the call and a
// *RequestError when no response arrived.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.obs.service),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.obs.record(ctx, req.Method, 0, OutcomeCircuitOpen, time.Since(start))
		log.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	c.decorate(ctx, req)

	ctx, span := c.obs.startSpan(ctx, req)
	resp, err := c.http.Do(req.WithContext(ctx))
	elapsed := time.Since(start)

	if err != nil {
		reqErr := c.requestError(req, err)
		endSpan(span, nil, reqErr)

		c.cb.RecordFailure()
		c.obs.record(ctx, req.Method, 0, reqErr.Outcome, elapsed)
		log.Warn("request failed", slog.Duration("duration", elapsed), slog.Any("error", reqErr.Err))

		return nil, reqErr
	}

	endSpan(span, resp, nil)

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	c.obs.record(ctx, req.Method, resp.StatusCode, statusOutcome(resp.StatusCode), elapsed)
	log.Debug("request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

// requestError classifies a transport failure and scrubs the query string,
// which may hold the API key, from the embedded URL.
func (c *Client) requestError(req *http.Request, err error) *RequestError {
	outcome := OutcomeError

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactedURL(req)
		if urlErr.Timeout() {
			outcome = OutcomeTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		outcome = OutcomeTimeout
	}

	return &RequestError{Service: c.obs.service, Outcome: outcome, Err: err}
}

// CircuitState reports the breaker state. Without a breaker it is always
// StateClosed.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// decorate forwards the request and correlation IDs and applies auth.
func (c *Client) decorate(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	if c.auth != nil {
		c.auth(req)
	}
}

func (c *Client) buildURL(path string) string {
	switch {
	case path == "":
		return c.baseURL
	case strings.HasPrefix(path, "/"):
		return c.baseURL + path
	default:
		return c.baseURL + "/" + path
	}
}

// redactedURL renders the request URL without its query string.
func redactedURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""

	return u.String()
}

// QueryKeyAuth returns an AuthFunc that sets the query parameter param.
func QueryKeyAuth(param, value string) func(*http.Request) {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Set(param, value)
		req.URL.RawQuery = q.Encode()
	}
}
