package telemetry_test

import (
	"context"
	"testing"

	"github.com/medico/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{Enabled: false, ServiceName: "medico-backend"}
	logger := zap.NewNop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, cfg, 0, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	core := telemetry.NewZapOTELCore("medico-backend", lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := telemetry.NewZapOTELCore("medico-backend", nil, zapcore.DebugLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}
