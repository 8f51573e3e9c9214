package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/domain"
	"github.com/jsamuelsen/motivation-service/internal/platform/config"
)

const testAPIKey = "test-key"

// setupGeminiClient creates a GeminiQuoteClient pointed at a test server.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc, circuit config.CircuitBreakerConfig) *GeminiQuoteClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(&clients.Config{
		ServiceName: GeminiServiceName,
		BaseURL:     server.URL + "/v1beta/models/test-model:generateContent",
		Timeout:     2 * time.Second,
		Circuit:     circuit,
		AuthFunc:    clients.QueryKeyAuth("key", testAPIKey),
	})
	require.NoError(t, err)

	return NewGeminiQuoteClient(GeminiQuoteClientConfig{
		Client: client,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// modelResponse writes a generateContent envelope whose first part carries text.
func modelResponse(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
					"role":  "model",
				},
				"finishReason": "STOP",
			},
		},
	})
	assert.NoError(t, err)
}

func TestNewGeminiQuoteClient_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() {
		NewGeminiQuoteClient(GeminiQuoteClientConfig{})
	})
}

func TestNewGeminiQuoteClient_DefaultsLogger(t *testing.T) {
	client, err := clients.New(&clients.Config{ServiceName: GeminiServiceName, BaseURL: "http://localhost"})
	require.NoError(t, err)

	c := NewGeminiQuoteClient(GeminiQuoteClientConfig{Client: client})

	assert.NotNil(t, c.logger)
	assert.Equal(t, GeminiServiceName, c.Name())
}

func TestGeminiQuoteClient_GenerateQuote_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}

		contents := body["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		assert.Equal(t, domain.DefaultPromptText, parts[0].(map[string]any)["text"])

		gen := body["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", gen["responseMimeType"])

		schema := gen["responseSchema"].(map[string]any)
		assert.Equal(t, "OBJECT", schema["type"])
		assert.ElementsMatch(t, []any{"quote", "author"}, schema["required"])

		props := schema["properties"].(map[string]any)
		assert.Equal(t, map[string]any{"type": "STRING"}, props["quote"])
		assert.Equal(t, map[string]any{"type": "STRING"}, props["author"])

		modelResponse(t, w, `{"quote":"Do it.","author":"Anon"}`)
	}

	c := setupGeminiClient(t, handler, config.CircuitBreakerConfig{})

	quote, err := c.GenerateQuote(context.Background(), domain.DefaultQuotePrompt())

	require.NoError(t, err)
	assert.Equal(t, &domain.Quote{Text: "Do it.", Author: "Anon"}, quote)
}

func TestGeminiQuoteClient_GenerateQuote_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		validation bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = fmt.Fprint(w, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`)
			},
		},
		{
			name: "bad api key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`)
			},
		},
		{
			name: "envelope not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, "<html>")
			},
			validation: true,
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, `{"candidates":[]}`)
			},
			validation: true,
		},
		{
			name: "no parts",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`)
			},
			validation: true,
		},
		{
			name: "nested text not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				modelResponse(t, w, "Do it. - Anon")
			},
			validation: true,
		},
		{
			name: "missing author",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				modelResponse(t, w, `{"quote":"Do it."}`)
			},
			validation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupGeminiClient(t, tt.handler, config.CircuitBreakerConfig{})

			quote, err := c.GenerateQuote(context.Background(), domain.DefaultQuotePrompt())

			require.Error(t, err)
			assert.Nil(t, quote)
			assert.Equal(t, tt.validation, domain.IsValidation(err))
			assert.Equal(t, !tt.validation, domain.IsUnavailable(err))
		})
	}
}

func TestGeminiQuoteClient_GenerateQuote_Timeout(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}

	c := setupGeminiClient(t, handler, config.CircuitBreakerConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GenerateQuote(ctx, domain.DefaultQuotePrompt())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), testAPIKey)
}

func TestGeminiQuoteClient_Check(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	c := setupGeminiClient(t, handler, config.CircuitBreakerConfig{
		Enabled:       true,
		MaxFailures:   2,
		Timeout:       time.Minute,
		HalfOpenLimit: 1,
	})
	ctx := context.Background()

	require.NoError(t, c.Check(ctx))
	assert.Zero(t, calls.Load(), "health check must not call the API")
	assert.True(t, c.NonCritical())

	for range 2 {
		_, err := c.GenerateQuote(ctx, domain.DefaultQuotePrompt())
		require.Error(t, err)
	}

	err := c.Check(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "circuit breaker open")

	_, err = c.GenerateQuote(ctx, domain.DefaultQuotePrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open during generate quote")
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewGenerateRequest_CustomFields(t *testing.T) {
	req := newGenerateRequest(domain.QuotePrompt{Text: "hi", RequiredFields: []string{"line"}})

	assert.Equal(t, "hi", req.Contents[0].Parts[0].Text)
	assert.Equal(t, []string{"line"}, req.GenerationConfig.ResponseSchema.Required)
	assert.Contains(t, req.GenerationConfig.ResponseSchema.Properties, "line")
}
