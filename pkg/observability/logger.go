package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/castingagency/gatekeeper/pkg/contextkeys"
)

// NewLogger creates a structured logger. format is "json" (default) or "text".
func NewLogger(level logrus.Level, format string, output io.Writer) *logrus.Logger {
	if output == nil {
		output = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(level)

	if strings.ToLower(format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// ParseLogLevel parses a log level string, falling back to info
func ParseLogLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// WithLogger stores a request-scoped log entry in the context
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextkeys.LoggerKey, entry)
}

// FromContext returns the request-scoped log entry, or one derived from
// fallback tagged with the request ID if the context carries none
func FromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if entry, ok := ctx.Value(contextkeys.LoggerKey).(*logrus.Entry); ok {
		return entry
	}
	if fallback == nil {
		fallback = logrus.StandardLogger()
	}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		return fallback.WithField("request_id", requestID)
	}
	return fallback
}
