package config

import (
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assertStringEqual(t, "service.name", defaultServiceName, cfg.Service.Name)
	assertStringEqual(t, "service.version", defaultServiceVersion, cfg.Service.Version)
	assertIntEqual(t, "service.port", defaultServicePort, cfg.Service.Port)
	assertIntEqual(t, "service.batch_limit", defaultBatchLimit, cfg.Service.BatchLimit)
	assertIntEqual(t, "service.buffer_size", defaultBufferSize, cfg.Service.BufferSize)
	assertIntEqual(t, "service.flush_threshold", defaultFlushThresh, cfg.Service.FlushThreshold)

	expectedFlushInterval := defaultFlushIntervalS * time.Second
	if cfg.Service.FlushInterval != expectedFlushInterval {
		t.Errorf("service.flush_interval: got %v, want %v",
			cfg.Service.FlushInterval, expectedFlushInterval)
	}

	assertStringEqual(t, "dataset.path", defaultDatasetPath, cfg.Dataset.Path)

	assertStringEqual(t, "database.host", defaultDBHost, cfg.Database.Host)
	assertIntEqual(t, "database.port", defaultDBPort, cfg.Database.Port)
	assertStringEqual(t, "database.user", defaultDBUser, cfg.Database.User)
	assertStringEqual(t, "database.database", defaultDBName, cfg.Database.Database)
	assertStringEqual(t, "database.sslmode", defaultDBSSLMode, cfg.Database.SSLMode)

	assertStringEqual(t, "redis.address", defaultRedisAddress, cfg.Redis.Address)
	expectedTTL := defaultCacheTTLHours * time.Hour
	if cfg.Redis.CacheTTL != expectedTTL {
		t.Errorf("redis.cache_ttl: got %v, want %v", cfg.Redis.CacheTTL, expectedTTL)
	}

	assertIntEqual(t, "rate_limit.requests_per_second",
		defaultRateLimitRPS, cfg.RateLimit.RequestsPerSecond)
	assertIntEqual(t, "rate_limit.burst", defaultRateLimitBurst, cfg.RateLimit.Burst)

	assertStringEqual(t, "logging.level", defaultLogLevel, cfg.Logging.Level)
	assertStringEqual(t, "logging.format", defaultLogFormat, cfg.Logging.Format)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestValidate_MissingDatasetPath(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Dataset.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing dataset path, got nil")
	}

	expected := "dataset.path: is required"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Service.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range port, got nil")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "classifier",
		Password: "secret",
		Database: "referers",
		SSLMode:  "require",
	}

	expected := "host=db.internal port=5433 user=classifier password=secret dbname=referers sslmode=require"
	if got := d.DSN(); got != expected {
		t.Errorf("DSN: got %q, want %q", got, expected)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("REFERER_CLASSIFIER_PORT", "9001")
	t.Setenv("REFERER_INTERNAL_DOMAINS", "a.example.com, b.example.com")

	cfg := &Config{}
	setDefaults(cfg)
	applyEnvOverrides(cfg)

	assertIntEqual(t, "service.port", 9001, cfg.Service.Port)
	if len(cfg.Service.InternalDomains) != 2 || cfg.Service.InternalDomains[1] != "b.example.com" {
		t.Errorf("service.internal_domains: got %v", cfg.Service.InternalDomains)
	}
}

func assertStringEqual(t *testing.T, name, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", name, got, want)
	}
}

func assertIntEqual(t *testing.T, name string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %d, want %d", name, got, want)
	}
}
