package telemetry

import (
	"context"
	"fmt"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogExport forwards zap entries to the OTLP collector. It is inert unless
// both telemetry and log export are enabled.
type LogExport struct {
	sdk  *sdklog.LoggerProvider
	name string
}

// LogExportOption customizes NewLogExport
type LogExportOption func(*logExportOptions)

type logExportOptions struct {
	exporter sdklog.Exporter
}

// WithLogExporter replaces the OTLP exporter; records are exported
// synchronously.
func WithLogExporter(exp sdklog.Exporter) LogExportOption {
	return func(o *logExportOptions) { o.exporter = exp }
}

func NewLogExport(ctx context.Context, cfg config.TelemetryConfig, opts ...LogExportOption) (*LogExport, error) {
	le := &LogExport{name: cfg.ServiceName}
	if !cfg.Enabled || !cfg.LogsEnabled {
		return le, nil
	}

	var o logExportOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build log resource: %w", err)
	}

	var processor sdklog.Processor
	if o.exporter != nil {
		processor = sdklog.NewSimpleProcessor(o.exporter)
	} else {
		expOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			expOpts = append(expOpts, otlploggrpc.WithInsecure())
		}
		exp, err := otlploggrpc.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP log exporter: %w", err)
		}
		processor = sdklog.NewBatchProcessor(exp)
	}

	le.sdk = sdklog.NewLoggerProvider(sdklog.WithResource(res), sdklog.WithProcessor(processor))
	return le, nil
}

func (le *LogExport) IsEnabled() bool {
	return le.sdk != nil
}

// Attach returns log teed into the collector at level and above. Entries
// keep their fields; the bridge adds trace correlation from the span in a
// context field when one is logged.
func (le *LogExport) Attach(log *zap.Logger, level zapcore.Level) *zap.Logger {
	if le.sdk == nil {
		return log
	}
	bridge, err := zapcore.NewIncreaseLevelCore(
		otelzap.NewCore(le.name, otelzap.WithLoggerProvider(le.sdk)),
		level,
	)
	if err != nil {
		log.Warn("Log export not attached", zap.Error(err))
		return log
	}
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, bridge)
	}))
}

// Shutdown flushes buffered records
func (le *LogExport) Shutdown(ctx context.Context) error {
	if le.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := le.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown log export: %w", err)
	}
	return nil
}
