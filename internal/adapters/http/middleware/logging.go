package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

// Logging writes an access log line when a request arrives and another when
// it completes. Operational /-/ routes and the exact paths in skipPaths are
// silent. The request-scoped logger is used when the ID middleware has set
// one, otherwise logger.
func Logging(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		req := c.Request
		if skip[req.URL.Path] || strings.HasPrefix(req.URL.Path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()
		log := logging.FromContextOr(req.Context(), logger).With(
			slog.String("method", req.Method),
			slog.String("path", req.URL.RequestURI()),
		)

		log.InfoContext(req.Context(), "request started",
			slog.String("origin", req.Header.Get("Origin")),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", req.UserAgent()),
		)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		// route is empty for NoRoute traffic: static files, preflights, 404s.
		log.Log(req.Context(), levelForStatus(status), "request completed",
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

// levelForStatus logs 5xx at error and 4xx at warn.
func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
