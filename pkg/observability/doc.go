// Package observability provides structured logging, Prometheus metrics,
// health probes and OpenTelemetry tracing for the gateway.
//
// # Structured Logging
//
// Loggers are plain logrus loggers. Request handlers pick up the
// request-scoped entry installed by the logging middleware:
//
//	logger := observability.NewLogger(logrus.InfoLevel, "json", os.Stdout)
//	observability.FromContext(r.Context(), logger).Info("request denied")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordDecision("granted")
//
// The Record* helpers are safe on a nil *Metrics, so components can be
// built without metrics in tests.
//
// # Health Checks
//
// Liveness always answers 200. Readiness answers 503 when no signing keys
// can be loaded and reports Redis as degraded rather than unhealthy.
//
// # Tracing
//
// InitTracing installs a global tracer provider exporting spans over
// OTLP/gRPC. With tracing disabled, spans go to the no-op provider.
//
// # Graceful Shutdown
//
//	sm := observability.NewShutdownManager(logger, server, 30*time.Second)
//	sm.RegisterShutdownFunc(tp.Shutdown)
//	sm.WaitForShutdown()
package observability
