package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig holds log export configuration.
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider owns the lifecycle of the OTLP log pipeline. With log
// export disabled the sdk field stays nil and Attach hands the base
// logger back untouched.
type LoggerProvider struct {
	sdk    *sdklog.LoggerProvider
	log    *zap.Logger
	config LogsConfig
}

// NewLoggerProvider builds the log pipeline on a batch processor and
// installs it as the global provider.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{log: log, config: cfg}

	if !cfg.Enabled {
		log.Info("Log export disabled, records stay local")
		return lp, nil
	}

	exporterOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP log exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.sdk = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.sdk)

	log.Info("Log pipeline ready",
		zap.String("collector", cfg.CollectorEndpoint),
		zap.String("service", cfg.ServiceName),
	)

	return lp, nil
}

// Shutdown flushes buffered records and stops the pipeline.
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	return drainProvider(ctx, lp.log, "logs", lp.sdk.Shutdown)
}

// IsEnabled reports whether records are actually exported.
func (lp *LoggerProvider) IsEnabled() bool {
	return lp.config.Enabled && lp.sdk != nil
}

// GetConfig returns a copy of the logs configuration.
func (lp *LoggerProvider) GetConfig() LogsConfig {
	return lp.config
}

// ForceFlush exports buffered records without waiting for the batcher.
func (lp *LoggerProvider) ForceFlush(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	return lp.sdk.ForceFlush(ctx)
}

// BridgeCore returns a zapcore.Core that forwards entries at or above min
// to the exporter. Disabled providers get a nop core.
func (lp *LoggerProvider) BridgeCore(min zapcore.Level) zapcore.Core {
	if lp.sdk == nil {
		return zapcore.NewNopCore()
	}

	core := otelzap.NewCore(lp.config.ServiceName, otelzap.WithLoggerProvider(lp.sdk))

	// otelzap has no level threshold of its own.
	if min > zapcore.DebugLevel {
		return &minLevelCore{Core: core, min: min}
	}
	return core
}

// Attach tees base's entries into the export bridge, so every record
// reaches both the local destination and the collector. With export
// disabled it returns base unchanged.
func (lp *LoggerProvider) Attach(base *zap.Logger, min zapcore.Level) *zap.Logger {
	if lp.sdk == nil {
		return base
	}

	bridge := lp.BridgeCore(min)
	return base.WithOptions(zap.WrapCore(func(local zapcore.Core) zapcore.Core {
		return zapcore.NewTee(local, bridge)
	}))
}

// minLevelCore clamps a wrapped core to a minimum level.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *minLevelCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}
