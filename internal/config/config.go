// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Verification VerificationConfig `mapstructure:"verification"`
	Recognition  RecognitionConfig  `mapstructure:"recognition"`
	AntiAbuse    AntiAbuseConfig    `mapstructure:"antiabuse"`
	Rewards      RewardsConfig      `mapstructure:"rewards"`
	Badges       []BadgeConfig      `mapstructure:"badges"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// VerificationConfig contains location verification settings.
type VerificationConfig struct {
	// AccuracySlackFactor scales the claimed GPS accuracy before it is
	// added to the landmark's discovery radius.
	AccuracySlackFactor float64 `mapstructure:"accuracy_slack_factor"`
}

// RecognitionConfig contains confidence thresholds per landmark difficulty.
type RecognitionConfig struct {
	EasyThreshold   float64 `mapstructure:"easy_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
	HardThreshold   float64 `mapstructure:"hard_threshold"`
}

// AntiAbuseConfig contains submission abuse detection settings.
type AntiAbuseConfig struct {
	CooldownSeconds           int     `mapstructure:"cooldown_seconds"`
	RateLimitCount            int     `mapstructure:"rate_limit_count"`
	RateLimitWindowSeconds    int     `mapstructure:"rate_limit_window_seconds"`
	TimestampToleranceSeconds int     `mapstructure:"timestamp_tolerance_seconds"`
	MaxTravelSpeedKmh         float64 `mapstructure:"max_travel_speed_kmh"`
}

// RewardsConfig contains the deterministic reward formula parameters.
type RewardsConfig struct {
	EasyMultiplier      float64 `mapstructure:"easy_multiplier"`
	MediumMultiplier    float64 `mapstructure:"medium_multiplier"`
	HardMultiplier      float64 `mapstructure:"hard_multiplier"`
	FirstDiscoveryBonus int     `mapstructure:"first_discovery_bonus"`
	LevelXPDivisor      float64 `mapstructure:"level_xp_divisor"`
}

// BadgeConfig represents a badge with its earning criteria.
type BadgeConfig struct {
	Name            string `mapstructure:"name"`
	Description     string `mapstructure:"description"`
	Icon            string `mapstructure:"icon"`
	Category        string `mapstructure:"category"`
	MinDiscoveries  int    `mapstructure:"min_discoveries"`
	FirstGlobalOnly bool   `mapstructure:"first_global_only"`
}

// CatalogConfig contains landmark catalog ingestion settings.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/discovery-ledger/")
	}

	setDefaults(v)

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Catalog configuration
	_ = v.BindEnv("catalog.path", "CATALOG_PATH")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults applies the documented rule defaults so a minimal config file
// only needs connection settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("verification.accuracy_slack_factor", 1.0)
	v.SetDefault("recognition.easy_threshold", 0.70)
	v.SetDefault("recognition.medium_threshold", 0.80)
	v.SetDefault("recognition.hard_threshold", 0.90)
	v.SetDefault("antiabuse.cooldown_seconds", 30)
	v.SetDefault("antiabuse.rate_limit_count", 10)
	v.SetDefault("antiabuse.rate_limit_window_seconds", 60)
	v.SetDefault("antiabuse.timestamp_tolerance_seconds", 120)
	v.SetDefault("antiabuse.max_travel_speed_kmh", 300)
	v.SetDefault("rewards.easy_multiplier", 1.0)
	v.SetDefault("rewards.medium_multiplier", 1.5)
	v.SetDefault("rewards.hard_multiplier", 2.0)
	v.SetDefault("rewards.first_discovery_bonus", 25)
	v.SetDefault("rewards.level_xp_divisor", 100)
	v.SetDefault("metrics.prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Verification.AccuracySlackFactor < 0 {
		return fmt.Errorf("verification.accuracy_slack_factor must not be negative")
	}
	if c.AntiAbuse.RateLimitCount <= 0 {
		return fmt.Errorf("antiabuse.rate_limit_count must be positive")
	}
	if c.AntiAbuse.MaxTravelSpeedKmh <= 0 {
		return fmt.Errorf("antiabuse.max_travel_speed_kmh must be positive")
	}
	if c.Rewards.LevelXPDivisor <= 0 {
		return fmt.Errorf("rewards.level_xp_divisor must be positive")
	}
	for _, threshold := range []float64{
		c.Recognition.EasyThreshold,
		c.Recognition.MediumThreshold,
		c.Recognition.HardThreshold,
	} {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("recognition thresholds must be within [0,1]")
		}
	}
	return nil
}

// ThresholdFor returns the confidence threshold for a landmark difficulty.
func (c *RecognitionConfig) ThresholdFor(difficulty string) float64 {
	switch difficulty {
	case "hard":
		return c.HardThreshold
	case "medium":
		return c.MediumThreshold
	default:
		return c.EasyThreshold
	}
}
