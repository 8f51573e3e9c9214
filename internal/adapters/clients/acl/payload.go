package acl

import (
	"encoding/json"
	"strings"

	"github.com/jsamuelsen/motivation-service/internal/domain"
)

// maxEchoedPayload bounds how much model output is kept on a validation
// error.
const maxEchoedPayload = 120

// TranslateQuotePayload parses the model's structured output, a JSON object
// carried as text, into a domain.Quote. Each field in required must be a
// non-blank string; other fields are ignored.
func TranslateQuotePayload(text string, required []string) (*domain.Quote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewValidationError("text", "model returned no content")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, domain.NewValidationErrorWithValue("text", "is not a JSON object", clip(text))
	}

	for _, name := range required {
		if err := requireStringField(fields, name); err != nil {
			return nil, err
		}
	}

	quote, _ := fields[domain.FieldQuote].(string)
	author, _ := fields[domain.FieldAuthor].(string)

	return domain.NewQuote(quote, author)
}

func requireStringField(fields map[string]any, name string) error {
	raw, ok := fields[name]
	if !ok {
		return domain.NewValidationError(name, "is missing")
	}

	s, ok := raw.(string)
	if !ok {
		return domain.NewValidationErrorWithValue(name, "must be a string", raw)
	}

	return requireText(s, name)
}

// requireText rejects blank values.
func requireText(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}

	return nil
}

func clip(s string) string {
	if len(s) <= maxEchoedPayload {
		return s
	}

	return s[:maxEchoedPayload] + "..."
}
