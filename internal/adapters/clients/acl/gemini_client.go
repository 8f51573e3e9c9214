package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/domain"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

// GeminiServiceName identifies the REST generator in logs, traces, and health checks.
const GeminiServiceName = "gemini"

const operationGenerate = "generate quote"

// GeminiQuoteClientConfig contains configuration for the Gemini REST client.
type GeminiQuoteClientConfig struct {
	// Client is the HTTP client to use for requests. Its BaseURL must be the
	// full generateContent endpoint and its AuthFunc must add the API key.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// GeminiQuoteClient implements ports.QuoteGenerator against the Gemini
// generateContent REST endpoint, one HTTP call per GenerateQuote.
type GeminiQuoteClient struct {
	restEndpoint
	logger *slog.Logger
}

// NewGeminiQuoteClient creates a new Gemini REST adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewGeminiQuoteClient(cfg GeminiQuoteClientConfig) *GeminiQuoteClient {
	if cfg.Client == nil {
		panic("GeminiQuoteClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiQuoteClient{
		restEndpoint: restEndpoint{client: cfg.Client, service: GeminiServiceName},
		logger:       logger,
	}
}

// External DTOs. These never leave the ACL.
type (
	generateRequest struct {
		Contents         []content        `json:"contents"`
		GenerationConfig generationConfig `json:"generationConfig"`
	}

	content struct {
		Parts []part `json:"parts"`
	}

	part struct {
		Text string `json:"text"`
	}

	generationConfig struct {
		ResponseMimeType string         `json:"responseMimeType"`
		ResponseSchema   responseSchema `json:"responseSchema"`
	}

	responseSchema struct {
		Type       string                    `json:"type"`
		Properties map[string]responseSchema `json:"properties,omitempty"`
		Required   []string                  `json:"required,omitempty"`
	}

	generateResponse struct {
		Candidates []candidate `json:"candidates"`
	}

	candidate struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	}
)

// newGenerateRequest builds the request body for prompt.
func newGenerateRequest(prompt domain.QuotePrompt) generateRequest {
	props := make(map[string]responseSchema, len(prompt.RequiredFields))
	for _, f := range prompt.RequiredFields {
		props[f] = responseSchema{Type: "STRING"}
	}

	return generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt.Text}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: responseSchema{
				Type:       "OBJECT",
				Properties: props,
				Required:   prompt.RequiredFields,
			},
		},
	}
}

// GenerateQuote asks the model for one quote. Implements ports.QuoteGenerator.
func (c *GeminiQuoteClient) GenerateQuote(ctx context.Context, prompt domain.QuotePrompt) (*domain.Quote, error) {
	body, err := json.Marshal(newGenerateRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	logger := logging.FromContext(ctx)
	logger.Log(ctx, logging.LevelTrace, "sending generate request", slog.Int("bytes", len(body)))

	rc, err := c.post(ctx, bytes.NewReader(body), operationGenerate)
	if err != nil {
		return nil, err
	}

	resp, err := decodeJSON[generateResponse](rc)
	if err != nil {
		return nil, domain.NewValidationError("response", err.Error())
	}

	text, err := firstPartText(resp)
	if err != nil {
		return nil, err
	}

	logger.Log(ctx, logging.LevelTrace, "received model output", slog.Int("chars", len(text)))

	quote, err := TranslateQuotePayload(text, prompt.RequiredFields)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "quote generated", slog.String("author", quote.Author))

	return quote, nil
}

// firstPartText extracts candidates[0].content.parts[0].text.
func firstPartText(resp *generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", domain.NewValidationError("candidates", "is empty")
	}

	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", domain.NewValidationErrorWithValue("candidates[0].content.parts", "is empty",
			resp.Candidates[0].FinishReason)
	}

	return parts[0].Text, nil
}
