// Package telemetry provides OpenTelemetry tracing and Prometheus metrics
// for the pipeline and the read API.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracerName is the instrumentation name used for pipeline spans
const TracerName = "github.com/salesrecon/backend/pipeline"

const shutdownTimeout = 10 * time.Second

// TracerProvider owns the SDK provider of one process. When telemetry is
// disabled it hands out no-op tracers.
type TracerProvider struct {
	sdk *sdktrace.TracerProvider
	log *zap.Logger
}

// ProviderOption customizes NewTracerProvider
type ProviderOption func(*providerOptions)

type providerOptions struct {
	exporter sdktrace.SpanExporter
	global   bool
}

// WithSpanExporter replaces the OTLP exporter. Spans are exported as they
// end, which suits short CLI runs and tests.
func WithSpanExporter(exp sdktrace.SpanExporter) ProviderOption {
	return func(o *providerOptions) { o.exporter = exp }
}

// WithoutGlobal keeps the provider out of otel's global registry
func WithoutGlobal() ProviderOption {
	return func(o *providerOptions) { o.global = false }
}

func NewTracerProvider(ctx context.Context, cfg config.TelemetryConfig, log *zap.Logger, opts ...ProviderOption) (*TracerProvider, error) {
	tp := &TracerProvider{log: log}
	if !cfg.Enabled {
		log.Debug("Tracing disabled")
		return tp, nil
	}

	o := providerOptions{global: true}
	for _, opt := range opts {
		opt(&o)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	spanOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	}
	if o.exporter != nil {
		spanOpts = append(spanOpts, sdktrace.WithSyncer(o.exporter))
	} else {
		exp, err := otlpExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		spanOpts = append(spanOpts, sdktrace.WithBatcher(exp))
	}
	tp.sdk = sdktrace.NewTracerProvider(spanOpts...)

	if o.global {
		otel.SetTracerProvider(tp.sdk)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	log.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.String("service_name", cfg.ServiceName),
	)
	return tp, nil
}

// otlpExporter dials lazily, so a missing collector does not fail startup
func otlpExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}
	return exp, nil
}

// samplerFor respects the caller's decision for child spans so a traced
// HTTP run trigger keeps its pipeline spans.
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Shutdown flushes pending spans; it is bounded by shutdownTimeout
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := tp.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	tp.log.Debug("Tracer provider stopped")
	return nil
}

func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return tp.Provider().Tracer(name, opts...)
}

// Provider is the SDK provider, or a no-op provider when tracing is off
func (tp *TracerProvider) Provider() trace.TracerProvider {
	if tp.sdk == nil {
		return noop.NewTracerProvider()
	}
	return tp.sdk
}

func (tp *TracerProvider) IsEnabled() bool {
	return tp.sdk != nil
}
