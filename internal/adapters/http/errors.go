package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/dto"
)

// NotFound is the terminal NoRoute handler. It answers with a JSON 404 naming
// the requested path.
func NotFound(c *gin.Context) {
	errResp := dto.NewErrorResponseWithDetails(
		dto.ErrorCodeNotFound,
		"resource not found",
		map[string]string{"path": c.Request.URL.Path},
	).WithTraceID(traceID(c))

	c.AbortWithStatusJSON(errResp.Status(), errResp)
}

// traceID returns the active trace ID, or "" when the request is not traced.
func traceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
