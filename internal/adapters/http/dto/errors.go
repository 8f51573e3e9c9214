// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import "net/http"

// ErrorCode is the machine-readable code in an error envelope.
type ErrorCode string

// Error codes the gateway emits outside of /api/motivation, which always
// answers with a quote-shaped body instead.
const (
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeNotFound: http.StatusNotFound,
	ErrorCodeInternal: http.StatusInternalServerError,
}

// HTTPStatus returns the status paired with c; unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// ErrorResponse is the error envelope for operational and unmatched routes.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information. For 404s Details carries the
// requested path.
type ErrorDetail struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return NewErrorResponseWithDetails(code, message, nil)
}

// NewErrorResponseWithDetails creates an error envelope with details.
func NewErrorResponseWithDetails(code ErrorCode, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithTraceID sets the trace ID and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// Status returns the HTTP status for the envelope's code.
func (e *ErrorResponse) Status() int {
	return e.Error.Code.HTTPStatus()
}
