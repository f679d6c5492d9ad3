package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// providerDrainTimeout bounds how long any signal provider may spend
// flushing on shutdown.
const providerDrainTimeout = 10 * time.Second

// serviceResource describes this process to the collector. Every signal
// provider shares it so traces, metrics and logs correlate on service.name.
func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	return res, nil
}

// drainProvider runs a provider shutdown under a hard deadline so a
// stalled collector cannot block process exit.
func drainProvider(ctx context.Context, log *zap.Logger, signal string, stop func(context.Context) error) error {
	drainCtx, cancel := context.WithTimeout(ctx, providerDrainTimeout)
	defer cancel()

	if err := stop(drainCtx); err != nil {
		log.Error("OTEL provider shutdown failed",
			zap.String("signal", signal),
			zap.Error(err),
		)
		return fmt.Errorf("drain %s provider: %w", signal, err)
	}

	log.Info("OTEL provider drained", zap.String("signal", signal))
	return nil
}
