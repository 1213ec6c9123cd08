package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps the OpenTelemetry tracer used by the gateway
type Tracer struct {
	tracer trace.Tracer
}

// Config holds tracing configuration
type Config struct {
	ServiceName    string `json:"service_name" yaml:"service_name"`
	JaegerEndpoint string `json:"jaeger_endpoint" yaml:"jaeger_endpoint"`
	Environment    string `json:"environment" yaml:"environment"`
}

// NewTracer creates a tracer exporting to Jaeger and installs it globally
func NewTracer(config Config) (*Tracer, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{tracer: otel.Tracer(config.ServiceName)}, nil
}

// NewNopTracer returns a tracer that records nothing
func NewNopTracer() *Tracer {
	return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("noop")}
}

// StartInvokeSpan starts a span covering one gateway invocation
func (t *Tracer) StartInvokeSpan(ctx context.Context, model, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "gateway.invoke", trace.WithAttributes(
		attribute.String("gateway.model", model),
		attribute.String("gateway.operation", operation),
	))
}

// StartAttemptSpan starts a span covering one external API attempt
func (t *Tracer) StartAttemptSpan(ctx context.Context, model string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "gateway.attempt", trace.WithAttributes(
		attribute.String("gateway.model", model),
		attribute.Int("gateway.attempt", attempt),
	))
}
