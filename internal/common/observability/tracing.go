// internal/common/observability/tracing.go
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type TracingOptions struct {
	ServiceName    string
	Version        string
	Environment    string
	JaegerEndpoint string
	SampleRatio    float64
}

// Tracing owns the process-wide tracer provider.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// NewTracing installs a tracer provider exporting to Jaeger.
func NewTracing(opts TracingOptions) (*Tracing, error) {
	if opts.JaegerEndpoint == "" {
		return nil, fmt.Errorf("jaeger endpoint is required")
	}
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}
	return newTracing(opts, sdktrace.WithBatcher(exporter)), nil
}

func newTracing(opts TracingOptions, export sdktrace.TracerProviderOption) *Tracing {
	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.Version),
		attribute.String("deployment.environment", opts.Environment),
	)

	ratio := opts.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{provider: provider}
}

func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
