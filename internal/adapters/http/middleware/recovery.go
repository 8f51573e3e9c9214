package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

// RecoveryConfig configures RecoveryWithConfig.
type RecoveryConfig struct {
	// Logger is used when the request context carries no logger.
	Logger *slog.Logger

	// Bodies maps a route pattern (c.FullPath()) to the 500 body written
	// when that route panics. Other routes get the dto.ErrorResponse
	// envelope.
	Bodies map[string]any

	// OnPanic, when set, also receives the panic value and stack.
	OnPanic func(err any, stack []byte)
}

// RecoveryWithConfig turns panics into a 500 response and logs the stack.
// Routes listed in cfg.Bodies get their own body; others get the error
// envelope. It must run first so that it covers every later handler.
func RecoveryWithConfig(cfg RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if r == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as net/http does
				panic(r)
			}

			stack := debug.Stack()
			if cfg.OnPanic != nil {
				cfg.OnPanic(r, stack)
			}

			ctx := c.Request.Context()
			traceID := trace.SpanContextFromContext(ctx).TraceID()

			logging.FromContextOr(ctx, cfg.Logger).ErrorContext(ctx, "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("route", c.FullPath()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			if body, ok := cfg.Bodies[c.FullPath()]; ok {
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
				return
			}

			errResp := dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred")
			if traceID.IsValid() {
				errResp.WithTraceID(traceID.String())
			}

			c.AbortWithStatusJSON(errResp.Status(), errResp)
		}()

		c.Next()
	}
}
