package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLogsProvider(t *testing.T, enabled bool) *LoggerProvider {
	t.Helper()
	provider, err := NewLoggerProvider(context.Background(), LogsConfig{
		Enabled:           enabled,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "anycrm-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	return provider
}

func TestLoggerProvider_Disabled(t *testing.T) {
	provider := newLogsProvider(t, false)

	assert.False(t, provider.IsEnabled())

	ctx := context.Background()
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx), "repeated shutdown must be safe")
	assert.NoError(t, provider.ForceFlush(ctx))
}

// The enabled path points at an endpoint nothing listens on; the batch
// processor buffers until shutdown, which is enough to exercise it.
func TestLoggerProvider_EnabledWithoutCollector(t *testing.T) {
	provider := newLogsProvider(t, true)

	assert.True(t, provider.IsEnabled())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestLoggerProvider_GetConfig(t *testing.T) {
	cfg := newLogsProvider(t, false).GetConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:19999", cfg.CollectorEndpoint)
	assert.Equal(t, "anycrm-test", cfg.ServiceName)
	assert.True(t, cfg.Insecure)
}

func TestBridgeCore_DisabledIsNop(t *testing.T) {
	core := newLogsProvider(t, false).BridgeCore(zapcore.InfoLevel)

	require.NotNil(t, core)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestBridgeCore_LevelThreshold(t *testing.T) {
	provider := newLogsProvider(t, true)
	defer provider.Shutdown(context.Background())

	t.Run("debug passes everything through", func(t *testing.T) {
		core := provider.BridgeCore(zapcore.DebugLevel)

		assert.True(t, core.Enabled(zapcore.DebugLevel))
		assert.True(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("warn clamps lower levels", func(t *testing.T) {
		core := provider.BridgeCore(zapcore.WarnLevel)

		assert.False(t, core.Enabled(zapcore.InfoLevel))
		assert.True(t, core.Enabled(zapcore.WarnLevel))
	})
}

func TestAttach_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()

	attached := newLogsProvider(t, false).Attach(base, zapcore.InfoLevel)

	assert.Same(t, base, attached)
}

func TestAttach_LocalOutputUnaffected(t *testing.T) {
	provider := newLogsProvider(t, true)
	defer provider.Shutdown(context.Background())

	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	attached := provider.Attach(zap.New(observedCore), zapcore.WarnLevel)

	attached.Info("contact updated", zap.String("contact_id", "ct-1"))
	attached.Warn("enrichment slow")

	logs := observedLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "contact updated", logs[0].Message)
	assert.Contains(t, logs[0].Context, zap.String("contact_id", "ct-1"))
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
}

func TestMinLevelCore_Filters(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	clamped := &minLevelCore{Core: observedCore, min: zapcore.WarnLevel}

	logger := zap.New(clamped)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	logs := observedLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn", logs[0].Message)
	assert.Equal(t, "error", logs[1].Message)
}

func TestMinLevelCore_WithKeepsClamp(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	clamped := &minLevelCore{Core: observedCore, min: zapcore.WarnLevel}

	child := clamped.With([]zapcore.Field{zap.String("service", "crm")})

	mlCore, ok := child.(*minLevelCore)
	require.True(t, ok, "With must preserve the clamp wrapper")
	assert.Equal(t, zapcore.WarnLevel, mlCore.min)

	zap.New(child).Warn("import finished with errors")

	logs := observedLogs.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Context, zap.String("service", "crm"))
}
