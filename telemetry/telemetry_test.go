package telemetry

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

//nolint:paralleltest // Tests modify the environment
func TestLoadConfigFromEnvEndpoint(t *testing.T) {
	tests := []struct {
		name             string
		kubernetesHost   string
		customEndpoint   string
		expectedEndpoint string
	}{
		{
			name:             "kubernetes detected",
			kubernetesHost:   "10.0.0.1",
			expectedEndpoint: kubernetesEndpoint,
		},
		{
			name: "outside kubernetes",
		},
		{
			name:             "custom endpoint wins",
			kubernetesHost:   "10.0.0.1",
			customEndpoint:   "http://custom-collector:4318",
			expectedEndpoint: "http://custom-collector:4318",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBERNETES_SERVICE_HOST", tt.kubernetesHost)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", tt.customEndpoint)

			config, err := LoadConfigFromEnv("dev")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEndpoint, config.Endpoint)
		})
	}
}

//nolint:paralleltest // Tests modify the environment
func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_SERVICE_VERSION", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", "")

	config, err := LoadConfigFromEnv("test")
	require.NoError(t, err)
	assert.False(t, config.Enabled)
	assert.Equal(t, defaultServiceName, config.ServiceName)
	assert.Equal(t, defaultServiceVersion, config.ServiceVersion)
	assert.Equal(t, defaultTimeout, config.Timeout)
	assert.Equal(t, "test", config.Environment)

	t.Setenv("OTEL_ENABLED", "sometimes")

	_, err = LoadConfigFromEnv("test")
	require.Error(t, err)
}

//nolint:paralleltest // Test replaces the global tracer provider
func TestInitializeAndShutdown(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	require.NoError(t, Initialize(t.Context(), nil))
	require.NoError(t, Initialize(t.Context(), &Config{Enabled: true}))
	assert.False(t, Enabled())

	require.NoError(t, Initialize(t.Context(), &Config{
		ServiceName:    "flowfsm",
		ServiceVersion: "test",
		Environment:    "test",
		Endpoint:       "http://127.0.0.1:4318",
		Enabled:        true,
		Timeout:        time.Second,
	}))
	assert.True(t, Enabled())

	require.NoError(t, Shutdown(t.Context()))
	assert.False(t, Enabled())
	require.NoError(t, Shutdown(t.Context()))
}

//nolint:paralleltest // Tests modify the environment
func TestLoadConfigFromEnvLogs(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://collector:4318/v1/traces")
	t.Setenv("OTEL_LOGS_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "")

	config, err := LoadConfigFromEnv("test")
	require.NoError(t, err)
	assert.True(t, config.LogsEnabled)
	assert.Equal(t, "http://collector:4318/v1/traces", config.LogsEndpoint)

	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "http://collector:4318/v1/logs")

	config, err = LoadConfigFromEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "http://collector:4318/v1/logs", config.LogsEndpoint)
}

//nolint:paralleltest // Test replaces the global tracer provider
func TestLogHandler(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	assert.Nil(t, LogHandler("flowfsm"))

	require.NoError(t, Initialize(t.Context(), &Config{
		ServiceName:  "flowfsm",
		Endpoint:     "http://127.0.0.1:4318",
		Enabled:      true,
		Timeout:      time.Second,
		LogsEnabled:  true,
		LogsEndpoint: "http://127.0.0.1:4318",
	}))

	handler := LogHandler("flowfsm")
	require.NotNil(t, handler)
	assert.True(t, handler.Enabled(t.Context(), slog.LevelInfo))

	require.NoError(t, Shutdown(t.Context()))
	assert.Nil(t, LogHandler("flowfsm"))
}
