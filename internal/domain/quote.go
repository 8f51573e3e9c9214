package domain

import "strings"

// Quote is a motivational quotation with its author.
// A Quote only exists with both fields non-empty; use NewQuote to build one.
type Quote struct {
	// Text is the quotation itself.
	Text string

	// Author is who said or wrote the quote.
	Author string
}

// NewQuote validates and creates a Quote. Surrounding whitespace is trimmed
// and a field that is empty afterwards is rejected.
func NewQuote(text, author string) (*Quote, error) {
	text = strings.TrimSpace(text)
	author = strings.TrimSpace(author)

	if text == "" {
		return nil, NewValidationError("quote", "is required")
	}

	if author == "" {
		return nil, NewValidationError("author", "is required")
	}

	return &Quote{Text: text, Author: author}, nil
}

// Fallback values returned to clients when no quote could be obtained.
const (
	// FallbackErrorMessage is the error field of the fallback payload.
	FallbackErrorMessage = "Failed to fetch motivation from the Gemini API."

	// FallbackQuoteText is the sentinel quote of the fallback payload.
	FallbackQuoteText = "Error: the dynamic quote engine is temporarily unavailable. Please try again in a moment."

	// FallbackQuoteAuthor is the sentinel author of the fallback payload.
	FallbackQuoteAuthor = "The Server Ghost"
)

// FallbackQuote returns the sentinel quote used when the fetcher is exhausted.
func FallbackQuote() Quote {
	return Quote{Text: FallbackQuoteText, Author: FallbackQuoteAuthor}
}

// Structured-output property names the generative API must fill in.
const (
	FieldQuote  = "quote"
	FieldAuthor = "author"
)

// DefaultPromptText is the instruction sent with every quote request.
const DefaultPromptText = "Generate a new, original, highly inspirational quote and its author. " +
	"Respond only with the quote and the author."

// QuotePrompt is the outbound request template: a natural-language
// instruction plus the response shape the API is asked to honor.
// It is immutable and identical across retries.
type QuotePrompt struct {
	// Text is the natural-language instruction.
	Text string

	// RequiredFields are the string properties the response object must carry.
	RequiredFields []string
}

// DefaultQuotePrompt returns the prompt requiring the quote and author fields.
func DefaultQuotePrompt() QuotePrompt {
	return QuotePrompt{
		Text:           DefaultPromptText,
		RequiredFields: []string{FieldQuote, FieldAuthor},
	}
}
