package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetricsEnabled  bool

	Quota         QuotaConfig
	Provider      ProviderConfig
	Models        ModelsConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// QuotaConfig is read once at startup and never reloaded.
type QuotaConfig struct {
	DailyTokenLimit   int64
	DailyMessageLimit int64
	Timezone          string
}

type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	SystemPrompt string
	Referer      string
	Title        string
}

type ModelsConfig struct {
	Path string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SubmitRate    float64
	SubmitBurst   int
}

// ObservabilityConfig carries log and OTLP exporter settings.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	LogSampling    bool
	OtelEnabled    bool
	OtelEndpoint   string
	OtelProtocol   string
	OtelSampleRate float64
}

const (
	DefaultDailyTokenLimit   int64 = 100000
	DefaultDailyMessageLimit int64 = 50
	DefaultSystemPrompt            = "You are a helpful assistant."
)

var (
	ErrInvalidTokenLimit   = errors.New("invalid_daily_token_limit")
	ErrInvalidMessageLimit = errors.New("invalid_daily_message_limit")
	ErrInvalidTimezone     = errors.New("invalid_quota_timezone")
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "lpt"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "lpt"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "lpt.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMetricsEnabled:  getenvBool("DATABASE_METRICS_ENABLED", true),

		Quota: QuotaConfig{
			DailyTokenLimit:   getenvInt64("DAILY_TOKEN_LIMIT", DefaultDailyTokenLimit),
			DailyMessageLimit: getenvInt64("DAILY_MESSAGE_LIMIT", DefaultDailyMessageLimit),
			Timezone:          getenv("QUOTA_TIMEZONE", "UTC"),
		},
		Provider: ProviderConfig{
			BaseURL:      strings.TrimRight(getenv("PROVIDER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
			APIKey:       strings.TrimSpace(getenv("PROVIDER_API_KEY", "")),
			Timeout:      time.Duration(getenvInt("PROVIDER_TIMEOUT_SECONDS", 60)) * time.Second,
			SystemPrompt: getenv("PROVIDER_SYSTEM_PROMPT", DefaultSystemPrompt),
			Referer:      strings.TrimSpace(getenv("PROVIDER_HTTP_REFERER", "")),
			Title:        strings.TrimSpace(getenv("PROVIDER_APP_TITLE", "")),
		},
		Models: ModelsConfig{
			Path: strings.TrimSpace(getenv("MODELS_CONFIG_PATH", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			SubmitRate:    getenvFloat("RATE_LIMIT_SUBMIT_RATE", 1),
			SubmitBurst:   getenvInt("RATE_LIMIT_SUBMIT_BURST", 5),
		},
		Observability: loadObservability(),
	}

	return cfg
}

func loadObservability() ObservabilityConfig {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	return ObservabilityConfig{
		LogLevel:       strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:      strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		LogSampling:    getenvBool("LOG_SAMPLING", true),
		OtelEnabled:    getenvBool("OTEL_ENABLED", false),
		OtelEndpoint:   strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OtelProtocol:   strings.ToLower(strings.TrimSpace(protocol)),
		OtelSampleRate: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

// Validate rejects configurations the quota guard cannot run with.
func (c Config) Validate() error {
	if c.Quota.DailyTokenLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTokenLimit, c.Quota.DailyTokenLimit)
	}
	if c.Quota.DailyMessageLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMessageLimit, c.Quota.DailyMessageLimit)
	}
	if _, err := c.Quota.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the zone used to compute the usage calendar day.
func (q QuotaConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(q.Timezone)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return loc, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
