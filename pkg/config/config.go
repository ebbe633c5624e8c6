package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvironmentTest is the only environment in which authentication may be disabled
	EnvironmentTest = "test"
	// EnvironmentProduction is the default environment
	EnvironmentProduction = "production"
)

// Config holds all application configuration
type Config struct {
	// Environment names the deployment (production, staging, test)
	Environment string

	// Server configuration
	Server ServerConfig

	// Auth configuration
	Auth AuthConfig

	// Gateway configuration
	Gateway GatewayConfig

	// Cache configuration
	Cache CacheConfig

	// Rate limit configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	// Domain is the identity provider domain, e.g. "casting.eu.auth0.com"
	Domain string
	// Audience is the API identifier tokens must be issued for
	Audience string

	// JWKSURLOverride replaces the key set URL derived from Domain
	JWKSURLOverride string

	KeyCacheTTL        time.Duration
	MinRefreshInterval time.Duration
	FetchTimeout       time.Duration
	ClockSkew          time.Duration

	// Disabled bypasses authentication entirely. Only valid in the test environment.
	Disabled bool
}

// Issuer returns the issuer tokens must carry
func (a AuthConfig) Issuer() string {
	return "https://" + a.Domain + "/"
}

// JWKSURL returns the key set URL
func (a AuthConfig) JWKSURL() string {
	if a.JWKSURLOverride != "" {
		return a.JWKSURLOverride
	}
	return "https://" + a.Domain + "/.well-known/jwks.json"
}

// GatewayConfig holds reverse proxy settings
type GatewayConfig struct {
	// UpstreamURL is the resource service authorized requests are forwarded to
	UpstreamURL string
	// RoutesFile optionally replaces the built-in route table
	RoutesFile string
}

// CacheConfig holds shared cache settings
type CacheConfig struct {
	// RedisURL enables the shared key set tier when set
	RedisURL string
}

// RateLimitConfig holds per-client request limits for protected routes
type RateLimitConfig struct {
	// RequestsPerWindow of zero disables rate limiting
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Enabled reports whether rate limiting is configured
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerWindow > 0
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled     bool
	OTelEndpoint    string
	OTelServiceName string
	OTelInsecure    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("GATEKEEPER_ENV", EnvironmentProduction),
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		Gateway:       loadGatewayConfig(),
		Cache:         loadCacheConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GATEKEEPER_HOST", "0.0.0.0"),
		Port:            getEnv("GATEKEEPER_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GATEKEEPER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GATEKEEPER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("GATEKEEPER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GATEKEEPER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadAuthConfig loads token verification configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Domain:             getEnv("AUTH0_DOMAIN", ""),
		Audience:           getEnv("AUTH0_AUDIENCE", ""),
		JWKSURLOverride:    getEnv("GATEKEEPER_JWKS_URL", ""),
		KeyCacheTTL:        getEnvDuration("GATEKEEPER_JWKS_CACHE_TTL", time.Hour),
		MinRefreshInterval: getEnvDuration("GATEKEEPER_JWKS_MIN_REFRESH", 10*time.Second),
		FetchTimeout:       getEnvDuration("GATEKEEPER_JWKS_FETCH_TIMEOUT", 5*time.Second),
		ClockSkew:          getEnvDuration("GATEKEEPER_CLOCK_SKEW", 0),
		Disabled:           getEnvBool("GATEKEEPER_AUTH_DISABLED", false),
	}
}

// loadGatewayConfig loads reverse proxy configuration from environment
func loadGatewayConfig() GatewayConfig {
	return GatewayConfig{
		UpstreamURL: getEnv("GATEKEEPER_UPSTREAM_URL", ""),
		RoutesFile:  getEnv("GATEKEEPER_ROUTES_FILE", ""),
	}
}

// loadCacheConfig loads shared cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		RedisURL: getEnv("GATEKEEPER_REDIS_URL", ""),
	}
}

// loadRateLimitConfig loads rate limiting configuration from environment
func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: getEnvInt("GATEKEEPER_RATE_LIMIT", 0),
		Window:            getEnvDuration("GATEKEEPER_RATE_LIMIT_WINDOW", time.Minute),
		Burst:             getEnvInt("GATEKEEPER_RATE_LIMIT_BURST", 0),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:        getEnv("GATEKEEPER_LOG_LEVEL", "info"),
		LogFormat:       getEnv("GATEKEEPER_LOG_FORMAT", "json"),
		MetricsEnabled:  getEnvBool("GATEKEEPER_METRICS_ENABLED", true),
		OTelEnabled:     getEnvBool("GATEKEEPER_OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("GATEKEEPER_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName: getEnv("GATEKEEPER_OTEL_SERVICE_NAME", "gatekeeper"),
		OTelInsecure:    getEnvBool("GATEKEEPER_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	// Validate auth config
	if c.Auth.Disabled {
		if c.Environment != EnvironmentTest {
			return fmt.Errorf("authentication can only be disabled when GATEKEEPER_ENV=%s", EnvironmentTest)
		}
	} else {
		if c.Auth.Domain == "" {
			return fmt.Errorf("AUTH0_DOMAIN is required")
		}
		if strings.Contains(c.Auth.Domain, "/") {
			return fmt.Errorf("AUTH0_DOMAIN must be a bare host name, got %q", c.Auth.Domain)
		}
		if c.Auth.Audience == "" {
			return fmt.Errorf("AUTH0_AUDIENCE is required")
		}
	}
	if c.Auth.KeyCacheTTL <= 0 {
		return fmt.Errorf("key cache TTL must be positive")
	}
	if c.Auth.FetchTimeout <= 0 {
		return fmt.Errorf("key fetch timeout must be positive")
	}
	if c.Auth.MinRefreshInterval < 0 || c.Auth.ClockSkew < 0 {
		return fmt.Errorf("refresh interval and clock skew must not be negative")
	}

	// Validate gateway config
	if c.Gateway.UpstreamURL == "" {
		return fmt.Errorf("GATEKEEPER_UPSTREAM_URL is required")
	}

	// Validate rate limit config
	if c.RateLimit.RequestsPerWindow < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}
	if c.RateLimit.Enabled() && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
