// Package config provides YAML configuration with environment variable
// overrides for the referer classifier service.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName    = "referer-classifier"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8094
	defaultBatchLimit     = 100
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"

	defaultDatasetPath = "data/referers.yml"

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBUser    = "postgres"
	defaultDBName    = "referer_classifier"
	defaultDBSSLMode = "disable"

	defaultRedisAddress  = "localhost:6379"
	defaultCacheTTLHours = 24

	defaultBufferSize     = 1000
	defaultFlushThresh    = 500
	defaultFlushIntervalS = 1

	defaultRateLimitRPS   = 100
	defaultRateLimitBurst = 200
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"REFERER_CLASSIFIER_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"               yaml:"debug"`
	// PageHost is the host of the site this deployment serves; referers from
	// it classify as internal.
	PageHost string `env:"REFERER_PAGE_HOST" yaml:"page_host"`
	// InternalDomains lists additional hosts treated as internal navigation.
	InternalDomains []string `env:"REFERER_INTERNAL_DOMAINS" yaml:"internal_domains"`
	// BatchLimit caps the number of referers per batch classify request.
	BatchLimit     int           `yaml:"batch_limit"`
	BufferSize     int           `yaml:"buffer_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	FlushThreshold int           `yaml:"flush_threshold"`
}

// DatasetConfig holds the referer dataset location.
type DatasetConfig struct {
	Path string `env:"REFERER_DATASET_PATH" yaml:"path"`
}

// DatabaseConfig holds PostgreSQL database configuration. Enabled gates
// event persistence; the service classifies without Postgres when false.
type DatabaseConfig struct {
	Enabled  bool   `env:"POSTGRES_ENABLED"  yaml:"enabled"`
	Host     string `env:"POSTGRES_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig holds the classification cache configuration.
type RedisConfig struct {
	Address  string        `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	Database int           `yaml:"database"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Enabled gates the cache entirely; the service runs without Redis when
	// false.
	Enabled bool `env:"REDIS_ENABLED" yaml:"enabled"`
}

// RateLimitConfig holds per-IP rate limiting configuration for the tracking
// endpoint.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	s := &cfg.Service
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.BatchLimit == 0 {
		s.BatchLimit = defaultBatchLimit
	}
	if s.BufferSize == 0 {
		s.BufferSize = defaultBufferSize
	}
	if s.FlushInterval == 0 {
		s.FlushInterval = defaultFlushIntervalS * time.Second
	}
	if s.FlushThreshold == 0 {
		s.FlushThreshold = defaultFlushThresh
	}

	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = defaultDatasetPath
	}

	d := &cfg.Database
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}

	r := &cfg.Redis
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
	if r.CacheTTL == 0 {
		r.CacheTTL = defaultCacheTTLHours * time.Hour
	}

	rl := &cfg.RateLimit
	if rl.RequestsPerSecond == 0 {
		rl.RequestsPerSecond = defaultRateLimitRPS
	}
	if rl.Burst == 0 {
		rl.Burst = defaultRateLimitBurst
	}

	l := &cfg.Logging
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

// Validate checks configuration invariants that defaults cannot satisfy.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return errors.New("dataset.path: is required")
	}
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("service.port: %d is out of range", c.Service.Port)
	}
	if c.Service.BatchLimit <= 0 {
		return fmt.Errorf("service.batch_limit: must be positive, got %d", c.Service.BatchLimit)
	}
	return nil
}
