package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), OTelConfig{Enabled: false}, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestInitTracing_Enabled(t *testing.T) {
	// The gRPC exporter connects lazily, so no collector is needed here
	cfg := OTelConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4317",
		ServiceName: "gatekeeper-test",
		Insecure:    true,
	}

	tp, err := InitTracing(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
