package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DAILY_TOKEN_LIMIT", "")
	t.Setenv("DAILY_MESSAGE_LIMIT", "")
	t.Setenv("QUOTA_TIMEZONE", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "")

	cfg := Load()
	assert.Equal(t, DefaultDailyTokenLimit, cfg.Quota.DailyTokenLimit)
	assert.Equal(t, DefaultDailyMessageLimit, cfg.Quota.DailyMessageLimit)
	assert.Equal(t, "UTC", cfg.Quota.Timezone)
	assert.Equal(t, 60*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, DefaultSystemPrompt, cfg.Provider.SystemPrompt)
	require.NoError(t, cfg.Validate())
}

func TestLoadQuotaOverrides(t *testing.T) {
	t.Setenv("DAILY_TOKEN_LIMIT", "250")
	t.Setenv("DAILY_MESSAGE_LIMIT", "3")
	t.Setenv("PROVIDER_BASE_URL", "http://localhost:9000/v1/")

	cfg := Load()
	assert.Equal(t, int64(250), cfg.Quota.DailyTokenLimit)
	assert.Equal(t, int64(3), cfg.Quota.DailyMessageLimit)
	assert.Equal(t, "http://localhost:9000/v1", cfg.Provider.BaseURL)
}

func TestLoadObservability(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "not-a-number")

	obs := Load().Observability
	assert.Equal(t, "debug", obs.LogLevel)
	assert.Equal(t, "http", obs.OtelProtocol)
	assert.Equal(t, 0.1, obs.OtelSampleRate)
	assert.True(t, obs.LogSampling)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "ok", cfg: Config{Quota: QuotaConfig{DailyTokenLimit: 1, DailyMessageLimit: 1}}},
		{name: "negative tokens", cfg: Config{Quota: QuotaConfig{DailyTokenLimit: -1}}, want: ErrInvalidTokenLimit},
		{name: "negative messages", cfg: Config{Quota: QuotaConfig{DailyMessageLimit: -5}}, want: ErrInvalidMessageLimit},
		{name: "bad zone", cfg: Config{Quota: QuotaConfig{Timezone: "Mars/Olympus"}}, want: ErrInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestQuotaLocation(t *testing.T) {
	loc, err := QuotaConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
