package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "bsale-report-test",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, cfg.ServiceName, tp.GetConfig().ServiceName)
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "bsale-report-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{ServiceName: "bsale-report-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}
