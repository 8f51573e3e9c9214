// Package main is the entry point for the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jsamuelsen/motivation-service/internal/adapters/clients"
	"github.com/jsamuelsen/motivation-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/motivation-service/internal/adapters/http"
	"github.com/jsamuelsen/motivation-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/motivation-service/internal/app"
	"github.com/jsamuelsen/motivation-service/internal/platform/config"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
	"github.com/jsamuelsen/motivation-service/internal/platform/metrics"
	"github.com/jsamuelsen/motivation-service/internal/platform/telemetry"
	"github.com/jsamuelsen/motivation-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("gemini_transport", cfg.Gemini.Transport),
		slog.Int("max_attempts", cfg.Gemini.Retry.MaxAttempts),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create Prometheus registry and quote metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	quoteMetrics, err := metrics.NewQuoteMetrics(registry)
	if err != nil {
		return fmt.Errorf("registering quote metrics: %w", err)
	}

	// 6. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 7. Create the quote generator (ACL pattern)
	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating quote generator: %w", err)
	}

	if err := healthRegistry.Register(generator); err != nil {
		return fmt.Errorf("registering generator health check: %w", err)
	}

	// 8. Optional static assets
	var staticDir *http.StaticDir
	if cfg.Static.Enabled {
		staticDir = http.NewStaticDir(cfg.Static.Dir)

		if err := healthRegistry.Register(staticDir); err != nil {
			return fmt.Errorf("registering static health check: %w", err)
		}

		logger.Info("serving static files", slog.String("dir", staticDir.Path()))
	}

	// 9. Create quote service (application layer)
	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Generator:      generator,
		MaxAttempts:    cfg.Gemini.Retry.MaxAttempts,
		AttemptTimeout: cfg.Gemini.AttemptTimeout,
		OverallTimeout: cfg.Gemini.OverallTimeout,
		Backoff:        clients.NewBackoff(cfg.Gemini.Retry),
		Metrics:        quoteMetrics,
		Logger:         logger,
	})

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo).WithGatherer(registry)
	motivationHandler := handlers.NewMotivationHandler(quoteService)

	// 11. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 12. Setup router with all middleware and routes
	routerCfg := http.RouterConfig{
		Logger:            logger,
		AppConfig:         &cfg.App,
		CORS:              &cfg.CORS,
		Static:            staticDir,
		HealthHandler:     healthHandler,
		MotivationHandler: motivationHandler,
	}
	if err := http.SetupRouter(server.Engine(), routerCfg); err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	// 13. Start server; a bind failure ends startup here
	serverErr, err := server.Start()
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	// 14. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// generator is a quote generator that also reports its health.
type generator interface {
	ports.QuoteGenerator
	ports.HealthChecker
}

// newGenerator builds the generator for the configured transport.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generator, error) {
	switch cfg.Gemini.Transport {
	case config.TransportSDK:
		breaker := clients.NewCircuitBreakerFromConfig(cfg.Client.CircuitBreaker,
			logger.With(slog.String("downstream", acl.GenAIServiceName)))

		client, err := acl.NewGenAIQuoteClient(ctx, acl.GenAIQuoteClientConfig{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			BaseURL:    cfg.Gemini.SDKBaseURL,
			HTTPClient: &nethttp.Client{Timeout: cfg.Client.Timeout},
			Breaker:    breaker,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}

		return client, nil

	default:
		httpClient, err := clients.New(&clients.Config{
			BaseURL:     cfg.Gemini.Endpoint,
			ServiceName: acl.GeminiServiceName,
			Timeout:     cfg.Client.Timeout,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			AuthFunc:    clients.QueryKeyAuth("key", cfg.Gemini.APIKey),
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating HTTP client: %w", err)
		}

		return acl.NewGeminiQuoteClient(acl.GeminiQuoteClientConfig{
			Client: httpClient,
			Logger: logger,
		}), nil
	}
}

// waitForShutdown blocks until SIGINT/SIGTERM or a serve failure, then drains
// in-flight requests. Requests still waiting on Gemini when the timeout
// elapses are cut off.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case <-sigCtx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete", slog.String("addr", server.Addr()))

	return nil
}
