package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/castingagency/gatekeeper/pkg/auth"
	"github.com/castingagency/gatekeeper/pkg/config"
	"github.com/castingagency/gatekeeper/pkg/gateway"
	"github.com/castingagency/gatekeeper/pkg/jwks"
	"github.com/castingagency/gatekeeper/pkg/middleware"
	"github.com/castingagency/gatekeeper/pkg/observability"
)

var checkConfig = flag.Bool("check-config", false, "Validate configuration and the route table, then exit")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gatekeeper: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(
		observability.ParseLogLevel(cfg.Observability.LogLevel),
		cfg.Observability.LogFormat,
		os.Stdout,
	)

	routes, err := loadRoutes(cfg.Gateway)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load route table")
	}
	if *checkConfig {
		logger.WithField("routes", len(routes)).Info("Configuration is valid")
		return
	}

	if err := run(cfg, routes, logger); err != nil {
		logger.WithError(err).Fatal("Gatekeeper exited with error")
	}
}

func loadRoutes(cfg config.GatewayConfig) ([]gateway.Route, error) {
	if cfg.RoutesFile == "" {
		return gateway.DefaultRoutes(), nil
	}
	return gateway.LoadRoutesFile(cfg.RoutesFile)
}

// newRateLimiter shares limits through Redis when it is configured and
// otherwise limits per process
func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig, redisClient *redis.Client, logger logrus.FieldLogger) middleware.Limiter {
	if !cfg.Enabled() {
		return nil
	}

	limits := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RequestsPerWindow,
		WindowDuration:    cfg.Window,
		BurstSize:         cfg.Burst,
	}
	logger.WithFields(logrus.Fields{
		"limit":  cfg.RequestsPerWindow,
		"window": cfg.Window.String(),
		"shared": redisClient != nil,
	}).Info("Rate limiting enabled")

	if redisClient != nil {
		return middleware.NewDistributedRateLimiter(redisClient, limits, "")
	}
	limiter := middleware.NewRateLimiter(limits)
	limiter.StartCleanup(ctx)
	return limiter
}

func run(cfg *config.Config, routes []gateway.Route, logger *logrus.Logger) error {
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:     cfg.Observability.OTelEnabled,
		Endpoint:    cfg.Observability.OTelEndpoint,
		ServiceName: cfg.Observability.OTelServiceName,
		Insecure:    cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	var redisClient *redis.Client
	cacheOpts := []jwks.Option{
		jwks.WithMetrics(metrics),
		jwks.WithLogger(logger.WithField("component", "jwks")),
	}
	if cfg.Cache.RedisURL != "" {
		redisClient, err = jwks.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return err
		}
		cacheOpts = append(cacheOpts, jwks.WithStore(
			jwks.NewRedisStore(redisClient, cfg.Auth.JWKSURL(), cfg.Auth.KeyCacheTTL),
		))
		logger.Info("Shared key set cache enabled")
	}

	keys := jwks.NewCache(
		jwks.NewHTTPFetcher(cfg.Auth.JWKSURL(), nil, cfg.Auth.FetchTimeout),
		&jwks.Config{
			TTL:                cfg.Auth.KeyCacheTTL,
			MinRefreshInterval: cfg.Auth.MinRefreshInterval,
			FetchTimeout:       cfg.Auth.FetchTimeout,
			MaxKeys:            jwks.DefaultConfig().MaxKeys,
		},
		cacheOpts...,
	)

	var (
		verifier middleware.TokenVerifier
		health   *observability.HealthChecker
	)
	if cfg.Auth.Disabled {
		logger.Warn("Authentication is DISABLED; every request is forwarded without a token check")
		health = observability.NewHealthChecker(nil, redisClient)
	} else {
		if err := keys.Warm(ctx); err != nil {
			logger.WithError(err).Warn("Initial key set fetch failed; will retry on first request")
		} else {
			logger.WithField("keys", keys.Len()).Info("Signing keys loaded")
		}
		verifier = auth.NewVerifier(cfg.Auth, keys)
		health = observability.NewHealthChecker(keys, redisClient)
	}

	guard := middleware.NewGuard(cfg.Auth, verifier,
		middleware.WithMetrics(metrics),
		middleware.WithLogger(logger),
	)

	forwarder, err := gateway.NewForwarder(cfg.Gateway.UpstreamURL, nil, logger)
	if err != nil {
		return err
	}

	opts := gateway.Options{
		Guard:       guard,
		Upstream:    forwarder.Forward,
		Routes:      routes,
		Verifier:    verifier,
		RateLimiter: newRateLimiter(ctx, cfg.RateLimit, redisClient, logger),
		Metrics:     metrics,
		Health:      health,
		Logger:      logger,
	}
	if cfg.Observability.MetricsEnabled {
		opts.Registry = registry
	}
	handler, err := gateway.NewServer(opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	if tp != nil {
		shutdown.RegisterShutdownFunc(tp.Shutdown)
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     server.Addr,
			"upstream": forwarder.Target().String(),
			"routes":   len(routes),
		}).Info("Starting gatekeeper")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- shutdown.WaitForShutdown()
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return <-shutdownErr
	case err := <-shutdownErr:
		return err
	}
}
