package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/motivation-service/internal/platform/config"
)

// CORS returns middleware that restricts cross-origin browser access to the
// configured origins and to GET requests.
//
// Requests without an Origin header, or whose Origin matches the request host,
// pass untouched. Any other origin not in the allow-list is rejected with
// 403 Forbidden before reaching a handler. A single "*" entry allows every
// origin.
func CORS(cfg config.CORSConfig) (gin.HandlerFunc, error) {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet},
		AllowHeaders:  []string{"Origin", "Accept", "Content-Type", HeaderRequestID, HeaderCorrelationID},
		ExposeHeaders: []string{HeaderRequestID, HeaderCorrelationID},
		MaxAge:        cfg.MaxAge,
	}

	if slices.Contains(cfg.AllowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CORS config: %w", err)
	}

	return cors.New(corsCfg), nil
}
