// Package observability provides OpenTelemetry integration for distributed
// tracing. Traces are exported over OTLP HTTP to a local collector or agent,
// which handles authentication and forwarding to the backend.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/quarklabs/ragline/internal/log"
)

// Config for the trace exporter.
type Config struct {
	// Endpoint is the OTLP HTTP collector endpoint (host:port).
	// Tracing is disabled when empty.
	Endpoint string
	// ServiceName is the service name attached to exported spans.
	ServiceName string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
}

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "ragline"

// shutdownTimeout bounds the final span flush during teardown.
const shutdownTimeout = 5 * time.Second

// Setup installs a global TracerProvider exporting to cfg.Endpoint.
// Returns a cleanup function that flushes pending spans; the returned
// cleanup is always safe to call. When cfg.Endpoint is empty or the
// exporter cannot be created, tracing is disabled and the cleanup is a
// no-op rather than an error.
func Setup(ctx context.Context, cfg Config, logger log.Logger) func() {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.Endpoint == "" {
		return func() {}
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(), // local collector doesn't need TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.DeploymentEnvironment(cfg.Environment),
		))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		logger.Warn("building trace resource, tracing disabled", "error", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}
