package http

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/motivation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/motivation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/motivation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/motivation-service/internal/platform/config"
	"github.com/jsamuelsen/motivation-service/internal/platform/telemetry"
)

// APIPrefix is the route group holding the public JSON API.
const APIPrefix = "/api"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// CORS is the browser origin allow-list. Required.
	CORS *config.CORSConfig

	// Static serves browser assets at the site root when set.
	Static *StaticDir

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// MotivationHandler serves GET /api/motivation.
	MotivationHandler *handlers.MotivationHandler
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first; /api/motivation still gets the fallback quote
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. CORS - rejects disallowed origins with 403, answers preflights
//
// Route groups:
//   - /-/ (internal): Health endpoints
//   - /api/ (public API): motivation endpoint
//   - anything else: static assets when enabled, then a JSON 404
func SetupRouter(engine *gin.Engine, cfg RouterConfig) error {
	if cfg.CORS == nil {
		return fmt.Errorf("router: CORS config is required")
	}

	corsMiddleware, err := middleware.CORS(*cfg.CORS)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	serviceName := "motivation-service"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	// CORS is global so OPTIONS preflights reach it through NoRoute.
	engine.Use(
		middleware.RecoveryWithConfig(middleware.RecoveryConfig{
			Logger: cfg.Logger,
			Bodies: map[string]any{
				APIPrefix + handlers.MotivationPath: dto.NewMotivationFallbackResponse(),
			},
		}),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(serviceName)...)
	engine.Use(
		middleware.Logging(cfg.Logger),
		corsMiddleware,
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group(APIPrefix)
	if cfg.MotivationHandler != nil {
		cfg.MotivationHandler.RegisterMotivationRoutes(api)
	}

	// Registered routes always win over files of the same name.
	noRoute := []gin.HandlerFunc{}
	if cfg.Static != nil {
		noRoute = append(noRoute, cfg.Static.Handler())
	}

	engine.NoRoute(append(noRoute, NotFound)...)

	return nil
}
