package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const providerShutdownTimeout = 10 * time.Second

// Collector is the OTLP/gRPC endpoint and service identity shared by the
// trace, metric and log pipelines.
type Collector struct {
	Endpoint       string
	Insecure       bool // plaintext gRPC, development only
	ServiceName    string
	ServiceVersion string
}

func (c Collector) resource() (*resource.Resource, error) {
	version := c.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(c.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func (c Collector) fields() []zap.Field {
	return []zap.Field{
		zap.String("collector_endpoint", c.Endpoint),
		zap.String("service_name", c.ServiceName),
		zap.Bool("insecure", c.Insecure),
	}
}

type sdkProvider interface {
	Shutdown(ctx context.Context) error
}

// shutdownProvider flushes and stops an SDK provider within
// providerShutdownTimeout. A nil provider is a disabled pipeline.
func shutdownProvider(ctx context.Context, p sdkProvider, signal string, log *zap.Logger) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, providerShutdownTimeout)
	defer cancel()

	if err := p.Shutdown(ctx); err != nil {
		log.Error("Error shutting down "+signal+" provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", signal, err)
	}
	log.Debug(signal + " provider shut down")
	return nil
}
