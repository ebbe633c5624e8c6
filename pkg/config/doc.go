// Package config loads gateway configuration from environment variables.
//
// # Configuration Structure
//
// Identity provider:
//
//	AUTH0_DOMAIN="casting.eu.auth0.com"   # bare host; issuer is https://<domain>/
//	AUTH0_AUDIENCE="casting-agency"
//	GATEKEEPER_JWKS_URL=""                 # overrides https://<domain>/.well-known/jwks.json
//
// Key cache:
//
//	GATEKEEPER_JWKS_CACHE_TTL="1h"
//	GATEKEEPER_JWKS_MIN_REFRESH="10s"
//	GATEKEEPER_JWKS_FETCH_TIMEOUT="5s"
//	GATEKEEPER_CLOCK_SKEW="0s"
//	GATEKEEPER_REDIS_URL=""                # enables the shared key set tier
//
// Gateway:
//
//	GATEKEEPER_HOST="0.0.0.0"
//	GATEKEEPER_PORT="8080"
//	GATEKEEPER_UPSTREAM_URL="http://casting-api:5000"
//	GATEKEEPER_ROUTES_FILE=""              # YAML route table, defaults to the built-in one
//
// Rate limiting (protected routes only, shared through Redis when configured):
//
//	GATEKEEPER_RATE_LIMIT="0"              # requests per window per client, 0 disables
//	GATEKEEPER_RATE_LIMIT_WINDOW="1m"
//	GATEKEEPER_RATE_LIMIT_BURST="0"
//
// Observability:
//
//	GATEKEEPER_LOG_LEVEL="info"
//	GATEKEEPER_LOG_FORMAT="json"
//	GATEKEEPER_METRICS_ENABLED="true"
//	GATEKEEPER_OTEL_ENABLED="false"
//	GATEKEEPER_OTEL_ENDPOINT="localhost:4317"
//
// Durations accept Go duration strings or a plain number of seconds.
//
// # Disabling Authentication
//
// GATEKEEPER_AUTH_DISABLED=true forwards every request with empty claims.
// Validate rejects it unless GATEKEEPER_ENV=test.
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
