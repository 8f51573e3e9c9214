package dto

import "github.com/jsamuelsen/motivation-service/internal/domain"

// MotivationResponse is the success body of GET /api/motivation.
type MotivationResponse struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// NewMotivationResponse converts a domain Quote to its HTTP representation.
func NewMotivationResponse(q *domain.Quote) MotivationResponse {
	return MotivationResponse{
		Quote:  q.Text,
		Author: q.Author,
	}
}

// MotivationFallbackResponse is returned with a 500 when no quote could be
// obtained. It still carries a displayable quote so clients can render it
// like a success.
type MotivationFallbackResponse struct {
	Error  string `json:"error"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// NewMotivationFallbackResponse returns the fixed fallback body.
func NewMotivationFallbackResponse() MotivationFallbackResponse {
	fallback := domain.FallbackQuote()

	return MotivationFallbackResponse{
		Error:  domain.FallbackErrorMessage,
		Quote:  fallback.Text,
		Author: fallback.Author,
	}
}
