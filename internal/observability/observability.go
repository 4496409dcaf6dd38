// Package observability wires the process-wide logging pipeline.
//
// By default logs go to stderr through slog in text or JSON form. Setting
// OTEL_LOGS_EXPORTER routes them through an OpenTelemetry pipeline instead
// (console or otlp, with the transport chosen by OTEL_EXPORTER_OTLP_PROTOCOL).
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "ridgeline-cli"

var shutdownFunc func(context.Context) error

// Instrument installs the process-wide slog default at the given level and
// format. When OTEL_LOGS_EXPORTER selects an exporter, records are bridged
// into an OpenTelemetry logger provider instead of written to stderr; call
// Shutdown before exit to flush it.
func Instrument(level slog.Level, format string) error {
	exporterName := os.Getenv("OTEL_LOGS_EXPORTER")
	if exporterName == "" || exporterName == "none" {
		slog.SetDefault(slog.New(newLocalHandler(level, format)))
		return nil
	}

	exporter, err := newExporter(context.Background(), exporterName)
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severityFromLevel(level))),
		sdklog.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	global.SetLoggerProvider(provider)
	shutdownFunc = provider.Shutdown

	slog.SetDefault(otelslog.NewLogger(serviceName, otelslog.WithLoggerProvider(provider)))
	return nil
}

// Shutdown flushes any buffered log records. Safe to call when Instrument
// never installed an exporter.
func Shutdown(ctx context.Context) error {
	if shutdownFunc == nil {
		return nil
	}
	return shutdownFunc(ctx)
}

func newLocalHandler(level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func newExporter(ctx context.Context, name string) (sdklog.Exporter, error) {
	switch name {
	case "console":
		return stdoutlog.New()
	case "otlp":
		switch protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol {
		case "grpc":
			return otlploggrpc.New(ctx)
		case "", "http/protobuf":
			return otlploghttp.New(ctx)
		default:
			return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
		}
	default:
		return nil, fmt.Errorf("unsupported logs exporter %q", name)
	}
}

// severityFromLevel maps the slog threshold onto the minimum severity the
// OpenTelemetry pipeline lets through.
func severityFromLevel(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
