package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
	"github.com/jsamuelsen/motivation-service/internal/ports"
)

// MotivationPath is the motivation route relative to the API group.
const MotivationPath = "/motivation"

// MotivationHandler serves generated motivational quotes.
type MotivationHandler struct {
	fetcher ports.QuoteFetcher
}

// NewMotivationHandler creates a new motivation handler.
// Panics if fetcher is nil.
func NewMotivationHandler(fetcher ports.QuoteFetcher) *MotivationHandler {
	if fetcher == nil {
		panic("MotivationHandler: fetcher is required")
	}

	return &MotivationHandler{
		fetcher: fetcher,
	}
}

// GetMotivation handles GET /api/motivation
// Returns a freshly generated quote, or the fallback quote with a 500 when
// the upstream could not produce one.
//
// @Summary Get a motivational quote
// @Description Generates an inspirational quote and its author
// @Tags motivation
// @Produce json
// @Success 200 {object} dto.MotivationResponse
// @Failure 500 {object} dto.MotivationFallbackResponse
// @Router /api/motivation [get]
func (h *MotivationHandler) GetMotivation(c *gin.Context) {
	ctx := c.Request.Context()

	quote, err := h.fetcher.FetchQuote(ctx)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "serving fallback quote", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.NewMotivationFallbackResponse())

		return
	}

	c.JSON(http.StatusOK, dto.NewMotivationResponse(quote))
}

// RegisterMotivationRoutes registers motivation routes on the given router group.
func (h *MotivationHandler) RegisterMotivationRoutes(rg *gin.RouterGroup) {
	rg.GET(MotivationPath, h.GetMotivation)
}
