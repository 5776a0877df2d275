package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "wafr-accelerator"

// Tracing holds the process tracer and its shutdown hook.
type Tracing struct {
	Tracer   trace.Tracer
	Shutdown func(ctx context.Context) error
}

// InitTracing installs a global tracer provider and W3C propagators.
// Spans are sampled parent-based so incoming traceparent headers are
// honoured; extra exporters can be attached through opts.
func InitTracing(service, env string, opts ...sdktrace.TracerProviderOption) (Tracing, error) {
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(service))}
	if env != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(env)))
	}
	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return Tracing{}, fmt.Errorf("build resource: %w", err)
	}

	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return Tracing{Tracer: tp.Tracer(tracerName), Shutdown: tp.Shutdown}, nil
}
