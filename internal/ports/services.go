// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrValidation, ErrUnavailable)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/motivation-service/internal/domain"
)

// QuoteGenerator performs a single outbound request for a generated quote.
// Adapters wrap a generative-language API behind this contract.
//
// Key considerations:
//   - Exactly one outbound call per invocation; retries belong to the caller
//   - Respect the context deadline, it is the per-attempt timeout
//   - Return a quote built through domain.NewQuote, never a partial one
type QuoteGenerator interface {
	// GenerateQuote asks the API for a quote matching the prompt.
	// Returns domain.ErrUnavailable for transport and status failures and
	// domain.ErrValidation when the response lacks a required field.
	GenerateQuote(ctx context.Context, prompt domain.QuotePrompt) (*domain.Quote, error)
}

// QuoteFetcher obtains a quote, absorbing transient failures.
// The HTTP gateway depends on this port rather than on the application service.
type QuoteFetcher interface {
	// FetchQuote returns a validated quote or an error wrapping
	// domain.ErrQuoteUnavailable once every attempt has failed.
	FetchQuote(ctx context.Context) (*domain.Quote, error)
}
