package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/domain"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

// GenAIServiceName identifies the SDK generator in logs and health checks.
const GenAIServiceName = "genai"

// GenAIQuoteClientConfig contains configuration for the SDK-backed client.
type GenAIQuoteClientConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the model name, e.g. "gemini-2.5-flash". Required.
	Model string

	// BaseURL overrides the SDK's API host. Empty uses the SDK default.
	BaseURL string

	// HTTPClient is the client the SDK sends requests through. Optional.
	HTTPClient *http.Client

	// Breaker, when non-nil, gates calls and drives the health check.
	Breaker *clients.CircuitBreaker

	// Logger is the structured logger.
	Logger *slog.Logger
}

// GenAIQuoteClient implements ports.QuoteGenerator using the official
// google.golang.org/genai SDK.
type GenAIQuoteClient struct {
	models  *genai.Models
	model   string
	breaker *clients.CircuitBreaker
	logger  *slog.Logger
}

// NewGenAIQuoteClient creates an SDK-backed quote generator.
func NewGenAIQuoteClient(ctx context.Context, cfg GenAIQuoteClientConfig) (*GenAIQuoteClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai: API key is required")
	}

	if cfg.Model == "" {
		return nil, errors.New("genai: model is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GenAIQuoteClient{
		models:  client.Models,
		model:   cfg.Model,
		breaker: cfg.Breaker,
		logger:  logger.With(slog.String("component", "acl.GenAIQuoteClient")),
	}, nil
}

// generateConfig builds the structured-output configuration for prompt.
func generateConfig(prompt domain.QuotePrompt) *genai.GenerateContentConfig {
	props := make(map[string]*genai.Schema, len(prompt.RequiredFields))
	for _, f := range prompt.RequiredFields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}

	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   prompt.RequiredFields,
		},
	}
}

// GenerateQuote asks the model for one quote. Implements ports.QuoteGenerator.
func (c *GenAIQuoteClient) GenerateQuote(ctx context.Context, prompt domain.QuotePrompt) (*domain.Quote, error) {
	logger := logging.FromContext(ctx)
	logger.Log(ctx, logging.LevelTrace, "sending generate request", slog.String("model", c.model))

	var resp *genai.GenerateContentResponse

	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.models.GenerateContent(ctx, c.model, genai.Text(prompt.Text), generateConfig(prompt))

		return err
	})
	if err != nil {
		return nil, MapHTTPError(nil, err, GenAIServiceName, operationGenerate)
	}

	text, err := sdkFirstPartText(resp)
	if err != nil {
		return nil, err
	}

	quote, err := TranslateQuotePayload(text, prompt.RequiredFields)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "quote generated", slog.String("author", quote.Author))

	return quote, nil
}

// sdkFirstPartText extracts the first candidate's first part text.
func sdkFirstPartText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", domain.NewValidationError("candidates", "is empty")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return "", domain.NewValidationErrorWithValue("candidates[0].content.parts", "is empty",
			string(cand.FinishReason))
	}

	return cand.Content.Parts[0].Text, nil
}

// Name implements ports.HealthChecker.
func (c *GenAIQuoteClient) Name() string {
	return GenAIServiceName
}

// Check implements ports.HealthChecker without calling the API.
func (c *GenAIQuoteClient) Check(_ context.Context) error {
	if c.breaker.State() == clients.StateOpen {
		return domain.NewUnavailableError(GenAIServiceName, "circuit breaker open")
	}

	return nil
}

// NonCritical implements ports.NonCriticalChecker.
func (c *GenAIQuoteClient) NonCritical() bool { return true }
