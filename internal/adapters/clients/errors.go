// Package clients provides HTTP client adapters for downstream services.
package clients

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen means the breaker refused the call; nothing was sent.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed matches every *RequestError.
	ErrRequestFailed = errors.New("request failed")
)

// Outcome labels the result of one outbound call in metrics and errors.
type Outcome string

const (
	OutcomeCircuitOpen Outcome = "circuit_open"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeError       Outcome = "error"
)

// RequestError is a transport failure: no HTTP response was received.
// Err has had any credential-bearing query string scrubbed from its URL.
type RequestError struct {
	Service string
	Outcome Outcome
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRequestFailed, e.Service, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is reports ErrRequestFailed as a match so callers need not know the type.
func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

// Timeout reports whether the call ran out of time.
func (e *RequestError) Timeout() bool { return e.Outcome == OutcomeTimeout }
