// Package telemetry exports the engine's OpenTelemetry spans, and optionally
// the CLI's log records, over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/flowfsm/envutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceName    = "flowfsm"
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	kubernetesEndpoint    = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

var (
	providerMu     sync.Mutex              //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider //nolint:gochecknoglobals
	loggerProvider *sdklog.LoggerProvider   //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration

	// LogsEnabled also exports log records. LogsEndpoint defaults to Endpoint.
	LogsEnabled  bool
	LogsEndpoint string
}

// LoadConfigFromEnv reads the tracing configuration from OTEL_* variables.
func LoadConfigFromEnv(environment string) (*Config, error) {
	enabled, err := envutil.Bool("OTEL_ENABLED", envutil.Default(false)).Value()
	if err != nil {
		return nil, err
	}

	// Inside Kubernetes the collector service is the default destination.
	defaultEndpoint := ""
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		defaultEndpoint = kubernetesEndpoint
	}

	svcName, err := envutil.String("OTEL_SERVICE_NAME", envutil.Default(defaultServiceName)).Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String("OTEL_SERVICE_VERSION", envutil.Default(defaultServiceVersion)).Value()
	if err != nil {
		return nil, err
	}

	endpoint := envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT").ValueOrElse(defaultEndpoint)

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", envutil.Default(defaultTimeout)).Value()
	if err != nil {
		return nil, err
	}

	logsEnabled, err := envutil.Bool("OTEL_LOGS_ENABLED", envutil.Default(false)).Value()
	if err != nil {
		return nil, err
	}

	logsEndpoint := envutil.String("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT").ValueOrElse(endpoint)

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    environment,
		Endpoint:       endpoint,
		Enabled:        enabled,
		Timeout:        timeout,
		LogsEnabled:    logsEnabled,
		LogsEndpoint:   logsEndpoint,
	}, nil
}

// Initialize installs a batching OTLP tracer provider as the global provider.
// It is a no-op when tracing is disabled or no endpoint is configured.
func Initialize(ctx context.Context, config *Config) error {
	if config == nil || !config.Enabled {
		slog.Debug("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		slog.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	var logs *sdklog.LoggerProvider

	if config.LogsEnabled && config.LogsEndpoint != "" {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.LogsEndpoint),
			otlploghttp.WithTimeout(config.Timeout),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}

		logs = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
	}

	providerMu.Lock()
	tracerProvider = provider
	loggerProvider = logs
	providerMu.Unlock()

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"logs", logs != nil,
	)

	return nil
}

// LogHandler returns a slog handler that forwards records to the OTLP log
// exporter, or nil when log export is not enabled.
func LogHandler(name string) slog.Handler {
	providerMu.Lock()
	defer providerMu.Unlock()

	if loggerProvider == nil {
		return nil
	}

	return otelslog.NewHandler(name, otelslog.WithLoggerProvider(loggerProvider))
}

// Enabled reports whether Initialize installed a provider.
func Enabled() bool {
	providerMu.Lock()
	defer providerMu.Unlock()

	return tracerProvider != nil
}

// Shutdown flushes pending spans and stops the provider installed by Initialize.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	provider := tracerProvider
	logs := loggerProvider
	tracerProvider = nil
	loggerProvider = nil
	providerMu.Unlock()

	if provider == nil {
		return nil
	}

	slog.Debug("Shutting down OpenTelemetry providers")

	var errs []error

	if logs != nil {
		errs = append(errs, logs.Shutdown(ctx))
	}

	errs = append(errs, provider.Shutdown(ctx))

	return errors.Join(errs...)
}
