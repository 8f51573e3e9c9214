package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
)

// accessLog serves target through Logging and returns the decoded log
// records.
func accessLog(t *testing.T, route, target string, status int, skipPaths ...string) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	router := gin.New()
	router.Use(Logging(slog.New(slog.NewJSONHandler(&buf, nil)), skipPaths...))
	router.GET(route, func(c *gin.Context) { c.String(status, "ok") })

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Origin", "http://localhost:3000")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, status, w.Code)

	var records []map[string]any
	for line := range strings.Lines(buf.String()) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}

	return records
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		route     string
		target    string
		status    int
		wantLevel string
	}{
		{"quote served", "/api/motivation", "/api/motivation", http.StatusOK, "INFO"},
		{"query kept", "/api/motivation", "/api/motivation?lang=en", http.StatusOK, "INFO"},
		{"fallback at error", "/api/motivation", "/api/motivation", http.StatusInternalServerError, "ERROR"},
		{"origin refused at warn", "/api/motivation", "/api/motivation", http.StatusForbidden, "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := accessLog(t, tt.route, tt.target, tt.status)
			require.Len(t, records, 2)

			started, completed := records[0], records[1]

			assert.Equal(t, "request started", started["msg"])
			assert.Equal(t, "INFO", started["level"])
			assert.Equal(t, "http://localhost:3000", started["origin"])
			assert.Equal(t, tt.target, started["path"])

			assert.Equal(t, "request completed", completed["msg"])
			assert.Equal(t, tt.wantLevel, completed["level"])
			assert.Equal(t, tt.route, completed["route"])
			assert.Equal(t, tt.target, completed["path"])
			assert.EqualValues(t, tt.status, completed["status"])
			assert.EqualValues(t, 2, completed["bytes"])
		})
	}
}

func TestLogging_Skips(t *testing.T) {
	assert.Empty(t, accessLog(t, "/-/ready", "/-/ready", http.StatusOK))
	assert.Empty(t, accessLog(t, "/favicon.ico", "/favicon.ico", http.StatusOK, "/favicon.ico"))
	assert.Len(t, accessLog(t, "/favicon.ico", "/favicon.ico", http.StatusOK, "/robots.txt"), 2)
}

func TestLogging_UsesRequestScopedLogger(t *testing.T) {
	var fallback, scoped bytes.Buffer

	router := gin.New()
	router.Use(func(c *gin.Context) {
		l := slog.New(slog.NewJSONHandler(&scoped, nil)).With(slog.String("request_id", "req-42"))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), l))
		c.Next()
	})
	router.Use(Logging(slog.New(slog.NewJSONHandler(&fallback, nil))))
	router.GET("/api/motivation", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/motivation", nil))

	assert.Empty(t, fallback.String())
	assert.Contains(t, scoped.String(), `"request_id":"req-42"`)
	assert.Contains(t, scoped.String(), `"route":"/api/motivation"`)
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusOK))
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusNotModified))
	assert.Equal(t, slog.LevelWarn, levelForStatus(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, levelForStatus(http.StatusBadGateway))
}
