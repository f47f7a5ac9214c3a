// Package config defines the global configuration structure for the SkyCast
// backend. Configuration is loaded once at process startup and is immutable
// thereafter. It follows 12-Factor App principles by strictly separating
// code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format causes the application to
// fail immediately on startup.
package config

import (
	"time"

	"skycast/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the SkyCast backend.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"skycast-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	Weather       WeatherConfig
	Auth          AuthConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	Archive       ArchiveConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server tuning and public URL configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	// DashboardURL is the public frontend origin (no trailing slash). It
	// becomes the allowed CORS origin when CORS_ALLOWED_ORIGINS is unset.
	DashboardURL string `envconfig:"DASHBOARD_URL" default:"http://localhost:5173"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// WeatherConfig holds upstream weather provider credentials and client tuning.
// Only the OpenWeather key is mandatory; aggregation degrades gracefully when
// the secondary providers are unconfigured.
type WeatherConfig struct {
	OpenWeatherAPIKey    SecretString `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	AccuWeatherAPIKey    SecretString `envconfig:"ACCUWEATHER_API_KEY"`
	VisualCrossingAPIKey SecretString `envconfig:"VISUALCROSSING_API_KEY"`

	RequestTimeout time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"10s"`
	MaxRetries     int           `envconfig:"WEATHER_MAX_RETRIES" default:"2"`
	// AggregateTimeout bounds the whole fan-out across providers.
	AggregateTimeout time.Duration `envconfig:"WEATHER_AGGREGATE_TIMEOUT" default:"15s"`
}

// AuthConfig holds session management settings.
type AuthConfig struct {
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	BcryptCost    int           `envconfig:"BCRYPT_COST" default:"10" validate:"min=4,max=31"`
	SessionSecret SecretString  `envconfig:"SESSION_SECRET" validate:"required,min=32"`
}

// SecurityConfig holds CORS and rate-limit settings.
type SecurityConfig struct {
	// CorsAllowedOrigins overrides the DashboardURL-derived default when
	// set. "*" disables the origin check entirely.
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"SkyCast"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// ArchiveConfig holds snapshot archival tuning.
type ArchiveConfig struct {
	// CompressionLevel maps onto zstd encoder levels 1 (fastest) to 4 (best).
	CompressionLevel int           `envconfig:"ARCHIVE_COMPRESSION_LEVEL" default:"3" validate:"min=1,max=4"`
	Retention        time.Duration `envconfig:"ARCHIVE_RETENTION" default:"8760h"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
