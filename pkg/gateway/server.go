package gateway

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/castingagency/gatekeeper/pkg/auth"
	"github.com/castingagency/gatekeeper/pkg/httputil"
	"github.com/castingagency/gatekeeper/pkg/middleware"
	"github.com/castingagency/gatekeeper/pkg/observability"
)

// Options wires a Server. Guard, Upstream and Routes are required.
type Options struct {
	Guard    middleware.Guard
	Upstream middleware.ProtectedFunc
	Routes   []Route

	// Verifier backs GET /verify/{token}. The endpoint is not registered
	// when nil.
	Verifier middleware.TokenVerifier

	// RateLimiter throttles clients on resource routes before any token
	// work. Probes are never limited.
	RateLimiter middleware.Limiter

	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Health   *observability.HealthChecker
	Logger   logrus.FieldLogger
}

// Server is the authorizing gateway HTTP handler
type Server struct {
	router  *mux.Router
	handler http.Handler
	opts    Options
}

// VerifyResponse is returned by GET /verify/{token}
type VerifyResponse struct {
	Permissions []string `json:"permissions"`
	Success     bool     `json:"success"`
}

// NewServer creates the gateway handler
func NewServer(opts Options) (*Server, error) {
	if opts.Guard == nil {
		return nil, errors.New("gateway: guard is required")
	}
	if opts.Upstream == nil {
		return nil, errors.New("gateway: upstream is required")
	}
	if err := ValidateRoutes(opts.Routes); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
	}
	s.setupRoutes()

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware,
	)
	s.handler = otelhttp.NewHandler(chain(s.router), "gatekeeper")

	return s, nil
}

// setupRoutes configures the gateway's own endpoints and the route table
func (s *Server) setupRoutes() {
	s.router.NotFoundHandler = httputil.NotFoundHandler()
	s.router.MethodNotAllowedHandler = httputil.MethodNotAllowedHandler()

	if s.opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.opts.Metrics))
	}

	// Probes
	if s.opts.Health != nil {
		s.router.HandleFunc("/healthz", s.opts.Health.Liveness).Methods(http.MethodGet)
		s.router.HandleFunc("/readyz", s.opts.Health.Readiness).Methods(http.MethodGet)
	} else {
		s.router.HandleFunc("/healthz", observability.NewHealthChecker(nil, nil).Liveness).Methods(http.MethodGet)
	}

	if s.opts.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.opts.Registry)).Methods(http.MethodGet)
	}

	if s.opts.Verifier != nil {
		s.router.HandleFunc("/verify/{token}", s.verifyToken).Methods(http.MethodGet)
	}

	// Protected resource routes
	for _, route := range s.opts.Routes {
		handler := s.opts.Guard.Require(route.Permission, s.opts.Upstream)
		if s.opts.RateLimiter != nil {
			handler = middleware.RateLimit(s.opts.RateLimiter, s.opts.Logger)(handler)
		}
		s.router.Handle(route.Path, handler).Methods(route.Method)
	}
}

// verifyToken decodes a token passed in the path and echoes its permissions
func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	claims, err := s.opts.Verifier.Verify(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	permissions, err := auth.PermissionsOf(claims)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Permissions: permissions,
		Success:     true,
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}
