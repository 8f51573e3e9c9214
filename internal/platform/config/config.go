// Package config loads service settings from defaults, YAML profiles and
// the environment with koanf, and validates them with validator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults applied before any file or environment source.
const (
	DefaultServerPort     = 3000
	DefaultMaxRequestSize = 1 << 20

	DefaultGeminiModel    = "gemini-2.5-flash-preview-09-2025"
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/" +
		DefaultGeminiModel + ":generateContent"

	// Five attempts with a 1s doubling delay: waits of 1s, 2s, 4s and 8s.
	DefaultRetryMaxAttempts = 5
	DefaultRetryMultiplier  = 2.0

	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10
	DefaultTransportIdleConnTimeout     = 90 * time.Second

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	DefaultStaticDir  = "./public"
	DefaultCORSOrigin = "http://localhost:3000"
)

// Transports supported by the quote generator.
const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Gemini    GeminiConfig    `koanf:"gemini"    validate:"required"`
	CORS      CORSConfig      `koanf:"cors"      validate:"required"`
	Static    StaticConfig    `koanf:"static"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"       validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"   validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"    validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// ClientConfig contains outbound HTTP client settings.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
// The breaker is off unless Enabled is set.
type CircuitBreakerConfig struct {
	Enabled       bool          `koanf:"enabled"`
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"         validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"      validate:"required,min=1s"`
}

// GeminiConfig contains settings of the generative-language API and the
// retry policy wrapped around it.
type GeminiConfig struct {
	Transport      string        `koanf:"transport"       validate:"required,oneof=rest sdk"`
	Endpoint       string        `koanf:"endpoint"        validate:"required,url"`
	APIKey         string        `koanf:"api_key"         validate:"required"`
	Model          string        `koanf:"model"           validate:"required"`
	SDKBaseURL     string        `koanf:"sdk_base_url"    validate:"omitempty,url"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout" validate:"required,min=100ms"`
	OverallTimeout time.Duration `koanf:"overall_timeout" validate:"omitempty,min=100ms"`
	Retry          RetryConfig   `koanf:"retry"           validate:"required"`
}

// RetryConfig contains the attempt bound and backoff schedule.
// MaxInterval of zero leaves the backoff uncapped.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=20"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"omitempty,min=10ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CORSConfig contains the browser origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string      `koanf:"allowed_origins" validate:"required,min=1,dive,required"`
	MaxAge         time.Duration `koanf:"max_age"`
}

// StaticConfig controls serving of browser assets.
type StaticConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"     validate:"required_if=Enabled true"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "motivation-service",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "120s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "motivation-service",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      false,

		"client.timeout":                           "30s",
		"client.circuit_breaker.enabled":           false,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"gemini.transport":              TransportREST,
		"gemini.endpoint":               DefaultGeminiEndpoint,
		"gemini.api_key":                "",
		"gemini.model":                  DefaultGeminiModel,
		"gemini.sdk_base_url":           "",
		"gemini.attempt_timeout":        "10s",
		"gemini.overall_timeout":        "0s",
		"gemini.retry.max_attempts":     DefaultRetryMaxAttempts,
		"gemini.retry.initial_interval": "1s",
		"gemini.retry.max_interval":     "0s",
		"gemini.retry.multiplier":       DefaultRetryMultiplier,
		"gemini.retry.jitter_factor":    0.0,

		"cors.allowed_origins": []string{DefaultCORSOrigin},
		"cors.max_age":         "12h",

		"static.enabled": false,
		"static.dir":     DefaultStaticDir,
	}
}

// deploymentEnv maps the bare variable names used by existing deployments
// onto config keys. They take precedence over APP_ variables.
var deploymentEnv = map[string]string{
	"PORT":           "server.port",
	"GEMINI_API_KEY": "gemini.api_key",
	"GEMINI_API_URL": "gemini.endpoint",
	"MAX_RETRIES":    "gemini.retry.max_attempts",
	"SERVE_STATIC":   "static.enabled",
	"STATIC_DIR":     "static.dir",
	"CORS_ORIGINS":   "cors.allowed_origins",
}

// listKeys hold comma-separated lists when set from the environment.
var listKeys = map[string]bool{
	"cors.allowed_origins": true,
}

// EnvPrefix namespaces the generic environment overrides.
const EnvPrefix = "APP_"

// Load layers configuration sources, later ones winning:
//
//	defaults < configs/base.yaml < configs/{profile}.yaml < APP_* < deployment variables
//
// Missing files are skipped. The result is not validated; call Validate.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")
	known := defaults()

	if err := k.Load(confmap.Provider(known, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{"configs/base.yaml"}
	if profile != "" {
		files = append(files, "configs/"+profile+".yaml")
	}

	for _, path := range files {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	envKeys := envKeyIndex(known)

	prefixed := env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		key := strings.TrimPrefix(name, EnvPrefix)
		path, ok := envKeys[key]
		if !ok {
			path = strings.ToLower(strings.ReplaceAll(key, "_", "."))
		}

		return path, envValue(path, value)
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("loading %s env vars: %w", EnvPrefix, err)
	}

	bare := env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		path, ok := deploymentEnv[name]
		if !ok {
			return "", nil
		}

		return path, envValue(path, value)
	})
	if err := k.Load(bare, nil); err != nil {
		return nil, fmt.Errorf("loading deployment env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyIndex maps SERVER_PORT style names onto known keys, so that keys
// containing underscores, such as gemini.api_key, survive the round trip.
func envKeyIndex(keys map[string]any) map[string]string {
	idx := make(map[string]string, len(keys))
	for key := range keys {
		idx[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}

	return idx
}

// envValue splits list keys on commas, dropping blanks.
func envValue(path, value string) any {
	if !listKeys[path] {
		return value
	}

	items := []string{}
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
