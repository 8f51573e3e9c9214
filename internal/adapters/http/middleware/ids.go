// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

const (
	// HeaderRequestID identifies one inbound request. It is echoed on the
	// response and forwarded on the Gemini call.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID ties a request to a caller-side transaction.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin.Context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin.Context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// maxInboundIDLength bounds caller-supplied IDs.
const maxInboundIDLength = 128

// idTracker accepts or mints one kind of ID and threads it through the
// gin.Context, the request context and the context logger.
type idTracker struct {
	header string
	ginKey string
	enrich func(ctx context.Context, id string) context.Context

	// fallback chooses the ID when the caller sent none usable.
	fallback func(c *gin.Context) string
}

// RequestID accepts a valid X-Request-ID or mints a UUID v4.
func RequestID() gin.HandlerFunc {
	return idTracker{
		header: HeaderRequestID,
		ginKey: ContextKeyRequestID,
		enrich: func(ctx context.Context, id string) context.Context {
			return ContextWithRequestID(logging.WithRequestID(ctx, id), id)
		},
		fallback: newID,
	}.handler()
}

// CorrelationID accepts a valid X-Correlation-ID. Without one, the request
// starts its own transaction and reuses the request ID when RequestID ran
// first, so both log fields match for direct browser calls.
func CorrelationID() gin.HandlerFunc {
	return idTracker{
		header: HeaderCorrelationID,
		ginKey: ContextKeyCorrelationID,
		enrich: func(ctx context.Context, id string) context.Context {
			return ContextWithCorrelationID(logging.WithCorrelationID(ctx, id), id)
		},
		fallback: func(c *gin.Context) string {
			if id := GetRequestID(c); id != "" {
				return id
			}

			return newID(c)
		},
	}.handler()
}

func (t idTracker) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if !validInboundID(id) {
			id = t.fallback(c)
		}

		c.Set(t.ginKey, id)
		c.Header(t.header, id)
		c.Request = c.Request.WithContext(t.enrich(c.Request.Context(), id))

		c.Next()
	}
}

func newID(*gin.Context) string {
	return uuid.NewString()
}

// validInboundID reports whether a caller-supplied ID can be used as is:
// non-empty, bounded, visible ASCII only. IDs end up in logs and outbound
// headers.
func validInboundID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
