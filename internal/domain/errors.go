// Package domain holds the quote model and the failures a quote fetch can
// end in. Nothing here knows about HTTP; adapters translate these errors
// into status codes and fallback bodies.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a reply that arrived but did not carry a usable
	// quote: wrong shape, empty text, unparsable JSON.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable marks a generator that produced no reply at all.
	ErrUnavailable = errors.New("unavailable")

	// ErrQuoteUnavailable is the only error a fetch returns to its caller.
	ErrQuoteUnavailable = fmt.Errorf("no quote obtained: %w", ErrUnavailable)
)

// ValidationError describes why a generator reply was rejected.
// Value, when set, is the offending input kept for logging.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return "validation failed for " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError rejects field with a reason.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue is NewValidationError that also records the
// rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError names the generator that failed to answer.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "service %q unavailable", e.Service)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	return b.String()
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError reports service as unreachable for reason.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// QuoteUnavailableError ends a fetch whose attempts were all used up or cut
// short. It matches ErrQuoteUnavailable; Attempts and LastErr are for logs.
type QuoteUnavailableError struct {
	Attempts int
	LastErr  error
}

func (e *QuoteUnavailableError) Error() string {
	msg := fmt.Sprintf("no quote obtained after %d attempt(s)", e.Attempts)
	if e.LastErr == nil {
		return msg
	}

	return msg + ": " + e.LastErr.Error()
}

func (e *QuoteUnavailableError) Unwrap() error { return ErrQuoteUnavailable }

// NewQuoteUnavailableError builds the terminal fetch failure.
func NewQuoteUnavailableError(attempts int, lastErr error) error {
	return &QuoteUnavailableError{Attempts: attempts, LastErr: lastErr}
}

// IsValidation reports whether err is a rejected reply.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnavailable reports whether err is a missing reply. The terminal fetch
// failure matches too.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsQuoteUnavailable reports whether err is the terminal fetch failure.
func IsQuoteUnavailable(err error) bool { return errors.Is(err, ErrQuoteUnavailable) }
