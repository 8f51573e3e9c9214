package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"google.golang.org/genai"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/domain"
)

// maxErrorBody bounds how much of an error reply is parsed.
const maxErrorBody = 64 << 10

// ErrorResponse is the error envelope of Google APIs:
//
//	{"error": {"code": 400, "message": "API key not valid.", "status": "INVALID_ARGUMENT"}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of an ErrorResponse.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Describe renders "message (STATUS)", dropping whichever part is empty.
func (e *ErrorResponse) Describe() string {
	msg, status := e.Error.Message, e.Error.Status
	if msg == "" || status == "" {
		return msg + status
	}

	return msg + " (" + status + ")"
}

// ParseErrorResponse decodes an error envelope from body. It returns nil
// when body is nil, not JSON, or carries neither message nor status.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var resp ErrorResponse
	if json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&resp) != nil {
		return nil
	}

	if resp.Describe() == "" {
		return nil
	}

	return &resp
}

// statusMessages names the replies Gemini commonly sends without a usable
// envelope.
var statusMessages = map[int]string{
	http.StatusBadRequest:         "invalid request",
	http.StatusUnauthorized:       "API key rejected",
	http.StatusForbidden:          "API key rejected",
	http.StatusNotFound:           "model or endpoint not found",
	http.StatusTooManyRequests:    "rate limit exceeded",
	http.StatusServiceUnavailable: "service temporarily unavailable",
}

// MapHTTPError turns the outcome of one call to service into a domain error,
// or nil for a 2xx reply. clientErr takes precedence over resp. Every failure
// is a *domain.UnavailableError; timeouts also match
// context.DeadlineExceeded.
func MapHTTPError(resp *http.Response, clientErr error, service, operation string) error {
	switch {
	case clientErr != nil:
		return mapClientError(clientErr, service, operation)
	case resp == nil:
		return domain.NewUnavailableError(service, "no response received")
	case statusOK(resp.StatusCode):
		return nil
	}

	var envelope *ErrorResponse
	if resp.Body != nil {
		envelope = ParseErrorResponse(resp.Body)
	}

	return statusError(resp.StatusCode, envelope, service, operation)
}

func mapClientError(err error, service, operation string) error {
	if errors.Is(err, clients.ErrCircuitOpen) {
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)
	}

	if isTimeout(err) {
		return &timeoutError{unavailable: domain.NewUnavailableError(service, operation+" timed out")}
	}

	// The SDK reports non-2xx replies as a value error carrying the envelope.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		envelope := &ErrorResponse{Error: ErrorDetail{Code: apiErr.Code, Message: apiErr.Message, Status: apiErr.Status}}
		return statusError(apiErr.Code, envelope, service, operation)
	}

	return domain.NewUnavailableError(service, fmt.Sprintf("%s failed: %v", operation, err))
}

func isTimeout(err error) bool {
	var reqErr *clients.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Timeout()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// timeoutError is a domain.UnavailableError that also matches
// context.DeadlineExceeded, so the retry loop can count it as a timeout.
type timeoutError struct {
	unavailable error
}

func (e *timeoutError) Error() string { return e.unavailable.Error() }

func (e *timeoutError) Unwrap() []error {
	return []error{e.unavailable, context.DeadlineExceeded}
}

func statusError(status int, envelope *ErrorResponse, service, operation string) error {
	msg, known := statusMessages[status]
	if !known {
		msg = fmt.Sprintf("%s failed with status %d", operation, status)
	}

	if envelope != nil {
		if d := envelope.Describe(); d != "" {
			msg = d
		}
	}

	return domain.NewUnavailableError(service, fmt.Sprintf("HTTP %d: %s", status, msg))
}
