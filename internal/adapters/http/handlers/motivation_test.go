package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/motivation-service/internal/domain"
	"github.com/jsamuelsen/motivation-service/internal/mocks"
)

func TestNewMotivationHandler(t *testing.T) {
	handler := NewMotivationHandler(mocks.NewMockQuoteFetcher(t))

	require.NotNil(t, handler)
}

func TestNewMotivationHandler_PanicsWithoutFetcher(t *testing.T) {
	assert.Panics(t, func() {
		NewMotivationHandler(nil)
	})
}

func TestMotivationHandler_GetMotivation(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*mocks.MockQuoteFetcher)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchQuote(mock.Anything).
					Return(&domain.Quote{Text: "Do it.", Author: "Anon"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"quote":"Do it.","author":"Anon"}`,
		},
		{
			name: "exhausted retries",
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchQuote(mock.Anything).
					Return(nil, domain.NewQuoteUnavailableError(5, domain.NewUnavailableError("gemini", "HTTP 500")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody: `{
				"error": "Failed to fetch motivation from the Gemini API.",
				"quote": "Error: the dynamic quote engine is temporarily unavailable. Please try again in a moment.",
				"author": "The Server Ghost"
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := mocks.NewMockQuoteFetcher(t)
			tt.setupMock(fetcher)

			handler := NewMotivationHandler(fetcher)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/motivation", nil)

			handler.GetMotivation(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestMotivationHandler_FallbackIsDisplayable(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchQuote(mock.Anything).Return(nil, domain.ErrQuoteUnavailable)

	router := gin.New()
	NewMotivationHandler(fetcher).RegisterMotivationRoutes(router.Group("/api"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/motivation", nil))

	var resp dto.MotivationFallbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Quote)
	assert.NotEmpty(t, resp.Author)
	assert.Equal(t, domain.FallbackErrorMessage, resp.Error)
}

func TestMotivationHandler_RegisterMotivationRoutes(t *testing.T) {
	router := gin.New()
	NewMotivationHandler(mocks.NewMockQuoteFetcher(t)).RegisterMotivationRoutes(router.Group("/api"))

	routes := router.Routes()

	require.Len(t, routes, 1)
	assert.Equal(t, http.MethodGet, routes[0].Method)
	assert.Equal(t, "/api/motivation", routes[0].Path)
}
