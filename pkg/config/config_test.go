package config

import (
	"strings"
	"testing"
	"time"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "GATEKEEPER_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "GATEKEEPER_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue     string
		defaultValue bool
		want         bool
	}{
		{envValue: "true", want: true},
		{envValue: "TRUE", want: true},
		{envValue: "1", want: true},
		{envValue: "false", defaultValue: true, want: false},
		{envValue: "yes", want: false},
		{envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("GATEKEEPER_TEST_BOOL", tt.envValue)
			if got := getEnvBool("GATEKEEPER_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		envValue string
		want     time.Duration
	}{
		{envValue: "30s", want: 30 * time.Second},
		{envValue: "1h", want: time.Hour},
		{envValue: "45", want: 45 * time.Second},
		{envValue: "soon", want: time.Minute},
		{envValue: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("GATEKEEPER_TEST_DURATION", tt.envValue)
			if got := getEnvDuration("GATEKEEPER_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		envValue string
		want     int
	}{
		{envValue: "120", want: 120},
		{envValue: "-3", want: -3},
		{envValue: "many", want: 7},
		{envValue: "", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("GATEKEEPER_TEST_INT", tt.envValue)
			if got := getEnvInt("GATEKEEPER_TEST_INT", 7); got != tt.want {
				t.Errorf("getEnvInt(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH0_DOMAIN", "casting.eu.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "casting-agency")
	t.Setenv("GATEKEEPER_UPSTREAM_URL", "http://casting-api:5000")
}

// TestLoadConfig tests defaults and overrides
func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != EnvironmentProduction {
		t.Errorf("Environment = %q, want %q", cfg.Environment, EnvironmentProduction)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.KeyCacheTTL != time.Hour {
		t.Errorf("KeyCacheTTL = %v, want 1h", cfg.Auth.KeyCacheTTL)
	}
	if cfg.Auth.MinRefreshInterval != 10*time.Second {
		t.Errorf("MinRefreshInterval = %v, want 10s", cfg.Auth.MinRefreshInterval)
	}
	if cfg.Auth.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.Auth.FetchTimeout)
	}
	if cfg.Auth.Disabled {
		t.Error("auth must be enabled by default")
	}
	if cfg.Auth.Issuer() != "https://casting.eu.auth0.com/" {
		t.Errorf("Issuer() = %q", cfg.Auth.Issuer())
	}
	if cfg.Auth.JWKSURL() != "https://casting.eu.auth0.com/.well-known/jwks.json" {
		t.Errorf("JWKSURL() = %q", cfg.Auth.JWKSURL())
	}
	if !cfg.Observability.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.RateLimit.Enabled() {
		t.Error("rate limiting should be disabled by default")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEKEEPER_JWKS_URL", "http://localhost:9999/jwks.json")
	t.Setenv("GATEKEEPER_JWKS_CACHE_TTL", "15m")
	t.Setenv("GATEKEEPER_CLOCK_SKEW", "30")
	t.Setenv("GATEKEEPER_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GATEKEEPER_ROUTES_FILE", "/etc/gatekeeper/routes.yaml")
	t.Setenv("GATEKEEPER_RATE_LIMIT", "300")
	t.Setenv("GATEKEEPER_RATE_LIMIT_BURST", "20")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Auth.JWKSURL() != "http://localhost:9999/jwks.json" {
		t.Errorf("JWKSURL() = %q", cfg.Auth.JWKSURL())
	}
	if cfg.Auth.KeyCacheTTL != 15*time.Minute {
		t.Errorf("KeyCacheTTL = %v", cfg.Auth.KeyCacheTTL)
	}
	if cfg.Auth.ClockSkew != 30*time.Second {
		t.Errorf("ClockSkew = %v", cfg.Auth.ClockSkew)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.Cache.RedisURL)
	}
	if cfg.Gateway.RoutesFile != "/etc/gatekeeper/routes.yaml" {
		t.Errorf("RoutesFile = %q", cfg.Gateway.RoutesFile)
	}
	if !cfg.RateLimit.Enabled() || cfg.RateLimit.RequestsPerWindow != 300 || cfg.RateLimit.Burst != 20 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("RateLimit.Window = %v, want 1m", cfg.RateLimit.Window)
	}
}

// validConfig returns a configuration that passes Validate
func validConfig() *Config {
	return &Config{
		Environment: EnvironmentProduction,
		Server:      ServerConfig{Port: "8080"},
		Auth: AuthConfig{
			Domain:             "casting.eu.auth0.com",
			Audience:           "casting-agency",
			KeyCacheTTL:        time.Hour,
			MinRefreshInterval: 10 * time.Second,
			FetchTimeout:       5 * time.Second,
		},
		Gateway: GatewayConfig{UpstreamURL: "http://casting-api:5000"},
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "port"},
		{name: "missing domain", mutate: func(c *Config) { c.Auth.Domain = "" }, wantErr: "AUTH0_DOMAIN"},
		{name: "domain with scheme", mutate: func(c *Config) { c.Auth.Domain = "https://casting.eu.auth0.com/" }, wantErr: "bare host"},
		{name: "missing audience", mutate: func(c *Config) { c.Auth.Audience = "" }, wantErr: "AUTH0_AUDIENCE"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.KeyCacheTTL = 0 }, wantErr: "TTL"},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.Auth.FetchTimeout = 0 }, wantErr: "timeout"},
		{name: "negative skew", mutate: func(c *Config) { c.Auth.ClockSkew = -time.Second }, wantErr: "negative"},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimit.RequestsPerWindow = -1 }, wantErr: "negative"},
		{
			name: "rate limit without window",
			mutate: func(c *Config) {
				c.RateLimit.RequestsPerWindow = 10
				c.RateLimit.Window = 0
			},
			wantErr: "window",
		},
		{name: "missing upstream", mutate: func(c *Config) { c.Gateway.UpstreamURL = "" }, wantErr: "UPSTREAM"},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = "gatekeeper"
			},
			wantErr: "endpoint",
		},
		{
			name:    "auth disabled outside test",
			mutate:  func(c *Config) { c.Auth.Disabled = true },
			wantErr: "GATEKEEPER_ENV=test",
		},
		{
			name: "auth disabled in test",
			mutate: func(c *Config) {
				c.Environment = EnvironmentTest
				c.Auth.Disabled = true
				c.Auth.Domain = ""
				c.Auth.Audience = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_AuthDisabledRequiresTestEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEKEEPER_AUTH_DISABLED", "true")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected disabled auth to be rejected outside the test environment")
	}

	t.Setenv("GATEKEEPER_ENV", EnvironmentTest)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Auth.Disabled {
		t.Error("expected auth to be disabled")
	}
}
