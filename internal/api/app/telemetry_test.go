package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/stretchr/testify/require"
)

type recordingExporter struct {
	shutdown bool
}

func (e *recordingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (e *recordingExporter) Shutdown(context.Context) error {
	e.shutdown = true
	return nil
}

func swapExporters(t *testing.T, otlp func(context.Context, TelemetryConfig) (sdktrace.SpanExporter, error), console func(TelemetryConfig) (sdktrace.SpanExporter, error)) {
	t.Helper()
	prevOTLP, prevConsole := newOTLPExporter, newConsoleExporter
	newOTLPExporter, newConsoleExporter = otlp, console
	t.Cleanup(func() { newOTLPExporter, newConsoleExporter = prevOTLP, prevConsole })
}

func TestSetupTelemetryShutsDownOTLPWhenConsoleFails(t *testing.T) {
	otlp := &recordingExporter{}
	swapExporters(t,
		func(context.Context, TelemetryConfig) (sdktrace.SpanExporter, error) { return otlp, nil },
		func(TelemetryConfig) (sdktrace.SpanExporter, error) { return nil, errors.New("no console") },
	)

	shutdown, err := SetupTelemetry(context.Background(), TelemetryConfig{
		ServiceName:  "user-api",
		Environment:  "development",
		OTLPEndpoint: "http://collector.invalid:4318/v1/traces",
		ConsoleSpans: true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.ErrorContains(t, err, "console exporter")
	require.Nil(t, shutdown)
	require.True(t, otlp.shutdown)
}

func TestSetupTelemetryConsoleSkippedInProduction(t *testing.T) {
	called := false
	swapExporters(t, newOTLPExporter, func(TelemetryConfig) (sdktrace.SpanExporter, error) {
		called = true
		return &recordingExporter{}, nil
	})

	shutdown, err := SetupTelemetry(context.Background(), TelemetryConfig{
		ServiceName:  "user-api",
		Environment:  EnvProduction,
		ConsoleSpans: true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	require.False(t, called)
}
