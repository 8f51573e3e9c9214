package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/domain"
)

// restEndpoint is one JSON-over-HTTP upstream behind a clients.Client. It
// turns non-2xx replies and transport failures into domain errors and
// reports health from the client's circuit breaker.
type restEndpoint struct {
	client  *clients.Client
	service string
}

// post sends body and returns the reply body of a 2xx response. The caller
// closes it.
func (e restEndpoint) post(ctx context.Context, body io.Reader, operation string) (io.ReadCloser, error) {
	resp, err := e.client.Post(ctx, "", body)
	if err != nil {
		return nil, MapHTTPError(nil, err, e.service, operation)
	}

	if !statusOK(resp.StatusCode) {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, e.service, operation)
	}

	return resp.Body, nil
}

// Name implements ports.HealthChecker.
func (e restEndpoint) Name() string { return e.service }

// Check implements ports.HealthChecker without calling the upstream: the
// endpoint is down only while its breaker is open.
func (e restEndpoint) Check(context.Context) error {
	if e.client.CircuitState() == clients.StateOpen {
		return domain.NewUnavailableError(e.service, "circuit breaker open")
	}

	return nil
}

// NonCritical implements ports.NonCriticalChecker. The gateway keeps
// answering with the fallback body, so an open breaker only degrades
// readiness.
func (restEndpoint) NonCritical() bool { return true }

var errNilBody = errors.New("response body is nil")

// decodeJSON decodes body into a T and closes it.
func decodeJSON[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errNilBody
	}
	defer func() { _ = body.Close() }()

	v := new(T)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return v, nil
}

// statusOK reports a 2xx status.
func statusOK(code int) bool { return code >= http.StatusOK && code < http.StatusMultipleChoices }
