package config

import (
	"fmt"
	"net/url"

	pkgconfig "github.com/blueworldgit/epc-parts-store/pkg/config"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CHECKOUT_HTTP_PORT" envDefault:"8004"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"partsstore"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"partsstore_secret"`
	PostgresDB   string `env:"CHECKOUT_DB_NAME" envDefault:"checkout_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (submission store and order number sequence)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Submission lifetime and order numbering
	SubmissionTTLMinutes int   `env:"SUBMISSION_TTL_MINUTES" envDefault:"30"`
	OrderNumberSeed      int64 `env:"ORDER_NUMBER_SEED" envDefault:"1000000"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment gateway
	GatewayMode           string `env:"GATEWAY_MODE" envDefault:"test"`
	GatewayTestURL        string `env:"GATEWAY_TEST_URL" envDefault:"https://try.access.worldpay.com/payments/authorizations"`
	GatewayLiveURL        string `env:"GATEWAY_LIVE_URL" envDefault:"https://access.worldpay.com/payments/authorizations"`
	GatewayUsername       string `env:"GATEWAY_USERNAME" envDefault:""`
	GatewayPassword       string `env:"GATEWAY_PASSWORD" envDefault:""`
	GatewayEntity         string `env:"GATEWAY_ENTITY" envDefault:"default"`
	GatewayTimeoutSeconds int    `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"30"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.GatewayMode != "test" && c.GatewayMode != "live" {
		return fmt.Errorf("GATEWAY_MODE must be %q or %q, got %q", "test", "live", c.GatewayMode)
	}
	if c.GatewayMode == "live" && (c.GatewayUsername == "" || c.GatewayPassword == "") {
		return fmt.Errorf("GATEWAY_USERNAME and GATEWAY_PASSWORD are required in live mode")
	}
	if c.SubmissionTTLMinutes < 1 {
		return fmt.Errorf("SUBMISSION_TTL_MINUTES must be at least 1, got %d", c.SubmissionTTLMinutes)
	}
	if c.OrderNumberSeed < 0 {
		return fmt.Errorf("ORDER_NUMBER_SEED must not be negative, got %d", c.OrderNumberSeed)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for name, rawURL := range map[string]string{
		"GATEWAY_TEST_URL": c.GatewayTestURL,
		"GATEWAY_LIVE_URL": c.GatewayLiveURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
