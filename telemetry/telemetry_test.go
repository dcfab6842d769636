package telemetry

import (
	"testing"
	"time"

	"github.com/amp-labs/amp-flow/envutil"
	"github.com/amp-labs/amp-flow/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // uses t.Setenv
func TestLoadConfigFromEnv_KubernetesDetection(t *testing.T) {
	tests := []struct {
		name             string
		kubernetesHost   string
		customEndpoint   string
		expectedEndpoint string
	}{
		{
			name:             "kubernetes detected",
			kubernetesHost:   "10.0.0.1",
			expectedEndpoint: kubernetesCollector,
		},
		{
			name:             "not in kubernetes",
			expectedEndpoint: "",
		},
		{
			name:             "custom endpoint overrides default",
			kubernetesHost:   "10.0.0.1",
			customEndpoint:   "http://custom-collector:4318",
			expectedEndpoint: "http://custom-collector:4318",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBERNETES_SERVICE_HOST", tt.kubernetesHost)
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.customEndpoint)

			cfg, err := LoadConfigFromEnv(t.Context(), "dev")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEndpoint, cfg.Endpoint)
		})
	}
}

//nolint:paralleltest // uses t.Setenv
func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_SERVICE_VERSION", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "")

	ctx := logger.WithSubsystem(t.Context(), "reviews")

	cfg, err := LoadConfigFromEnv(ctx, "test")
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Logs)
	assert.Equal(t, defaultServiceVersion, cfg.ServiceVersion)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "reviews", cfg.ServiceName)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}

//nolint:paralleltest // uses t.Setenv
func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_LOGS_ENABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "250")

	ctx := envutil.WithEnvOverride(t.Context(), "OTEL_SERVICE_NAME", "flows")

	cfg, err := LoadConfigFromEnv(ctx, "prod")
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Logs)
	assert.Equal(t, "flows", cfg.ServiceName)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)

	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "soon")

	_, err = LoadConfigFromEnv(ctx, "prod")
	require.Error(t, err)
}

//nolint:paralleltest // installs global providers
func TestInitializeDisabled(t *testing.T) {
	providers, err := Initialize(t.Context(), &Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, providers)

	providers, err = Initialize(t.Context(), &Config{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, providers)

	require.NoError(t, Shutdown(t.Context()))
}

//nolint:paralleltest // installs global providers
func TestInitializeAndShutdown(t *testing.T) {
	providers, err := Initialize(t.Context(), &Config{
		ServiceName:    "flows",
		ServiceVersion: "1.2.3",
		Environment:    "test",
		Endpoint:       "http://127.0.0.1:4318",
		Enabled:        true,
		Logs:           true,
		Timeout:        100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Logger)

	require.NoError(t, Shutdown(t.Context()))

	// a second shutdown has nothing left to do
	require.NoError(t, Shutdown(t.Context()))
}
