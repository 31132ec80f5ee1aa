package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TelemetryConfig selects the span exporters.
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is an http(s) collector URL. Empty disables OTLP export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string

	// ConsoleSpans writes spans to ConsoleOutput. Honoured outside
	// production only.
	ConsoleSpans  bool
	ConsoleOutput io.Writer
}

// Exporter constructors, swapped in tests.
var (
	newOTLPExporter = func(ctx context.Context, cfg TelemetryConfig) (sdktrace.SpanExporter, error) {
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint),
			otlptracehttp.WithHeaders(cfg.OTLPHeaders),
		)
	}
	newConsoleExporter = func(cfg TelemetryConfig) (sdktrace.SpanExporter, error) {
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.ConsoleOutput != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.ConsoleOutput))
		}
		return stdouttrace.New(opts...)
	}
)

// SetupTelemetry installs the global tracer provider and propagator. With
// no exporter configured, spans are still created so trace ids exist for
// logs and the X-Trace-ID header. The returned func flushes and stops the
// provider.
func SetupTelemetry(ctx context.Context, cfg TelemetryConfig, logger *slog.Logger) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	var exporters []sdktrace.SpanExporter
	fail := func(err error) (func(context.Context) error, error) {
		for _, exp := range exporters {
			_ = exp.Shutdown(ctx)
		}
		return nil, err
	}

	if cfg.OTLPEndpoint != "" {
		exp, err := newOTLPExporter(ctx, cfg)
		if err != nil {
			return fail(fmt.Errorf("otlp exporter: %w", err))
		}
		exporters = append(exporters, exp)
		logger.Info("otlp span export enabled", "endpoint", cfg.OTLPEndpoint)
	}

	if cfg.ConsoleSpans && cfg.Environment != EnvProduction {
		exp, err := newConsoleExporter(cfg)
		if err != nil {
			return fail(fmt.Errorf("console exporter: %w", err))
		}
		exporters = append(exporters, exp)
		logger.Info("console span export enabled")
	}

	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("otel error", "error", err)
	}))

	return func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}
