// Package middleware guards protected operations with token authorization
// and throttles clients.
//
// # Guards
//
// A Guard wraps a ProtectedFunc with a permission requirement. The
// operation runs only when the request carries a valid token granting the
// permission, and it receives the verified claims as an argument.
//
//	guard := middleware.NewGuard(cfg.Auth, verifier, middleware.WithMetrics(metrics))
//	router.Handle("/actors", guard.Require("view:actors", listActors)).Methods("GET")
//
// NewGuard returns a DisabledGuard when authentication is turned off. That
// only passes configuration validation in the test environment.
//
// # Rate Limiting
//
// RateLimit rejects a client with 429 once its Limiter budget is spent.
// Clients are keyed by connection peer address.
//
//	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
//		RequestsPerWindow: 100,
//		WindowDuration:    time.Minute,
//		BurstSize:         10,
//	})
//	handler = middleware.RateLimit(limiter, logger)(handler)
//
// NewDistributedRateLimiter keeps fixed-window counters in Redis so every
// replica shares one budget. Redis errors fail open.
package middleware
