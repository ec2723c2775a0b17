package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Attribution Insights service.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Report    ReportConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	// NonceTTL bounds how long an issued anti-forgery token stays valid.
	NonceTTL time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ReportConfig holds report-shaping settings.
type ReportConfig struct {
	// TopSources caps the ranked source summary; keys beyond the cap are
	// dropped from both the summary and the trend series.
	TopSources int
	// TopProducts caps the product ranking.
	TopProducts int
	// DefaultRangeDays is used when the REST caller omits start_date.
	DefaultRangeDays int
	// Schema forces the order storage layout: "auto", "orders" or "meta".
	Schema string
	// Currency and DateFormat are handed to the admin client verbatim.
	Currency   string
	DateFormat string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("ATTR_HTTP_ADDR", ":8080"),
			Env:             getEnv("ATTR_ENV", "development"),
			ShutdownTimeout: getDurationEnv("ATTR_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("ATTR_DB_HOST", "localhost"),
			Port:     getIntEnv("ATTR_DB_PORT", 5432),
			User:     getEnv("ATTR_DB_USER", "attribution"),
			Password: getEnv("ATTR_DB_PASSWORD", "attribution_secret"),
			DBName:   getEnv("ATTR_DB_NAME", "storefront"),
			SSLMode:  getEnv("ATTR_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("ATTR_DB_MAX_CONNS", 10),
			MinConns: getIntEnv("ATTR_DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("ATTR_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("ATTR_REDIS_PASSWORD", ""),
			DB:       getIntEnv("ATTR_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("ATTR_AUTH_ENABLED", true),
			MasterKey: getEnv("ATTR_API_KEY_MASTER", ""),
			NonceTTL:  getDurationEnv("ATTR_NONCE_TTL", 12*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("ATTR_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("ATTR_RATE_LIMIT_RPS", 50),
			Burst:   getIntEnv("ATTR_RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("ATTR_LOG_LEVEL", "info"),
			Format: getEnv("ATTR_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("ATTR_METRICS_ENABLED", true),
			Path:    getEnv("ATTR_METRICS_PATH", "/metrics"),
		},
		Report: ReportConfig{
			TopSources:       getIntEnv("ATTR_REPORT_TOP_SOURCES", 10),
			TopProducts:      getIntEnv("ATTR_REPORT_TOP_PRODUCTS", 10),
			DefaultRangeDays: getIntEnv("ATTR_REPORT_DEFAULT_RANGE_DAYS", 30),
			Schema:           getEnv("ATTR_ORDER_SCHEMA", "auto"),
			Currency:         getEnv("ATTR_CURRENCY", "USD"),
			DateFormat:       getEnv("ATTR_DATE_FORMAT", "2006-01-02"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("ATTR_API_KEY_MASTER is required when auth is enabled")
	}
	switch c.Report.Schema {
	case "auto", "orders", "meta":
	default:
		return fmt.Errorf("ATTR_ORDER_SCHEMA must be auto, orders or meta, got %q", c.Report.Schema)
	}
	if c.Report.TopSources < 1 {
		return fmt.Errorf("ATTR_REPORT_TOP_SOURCES must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

