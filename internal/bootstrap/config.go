// Package bootstrap wires configuration, storage and the HTTP server into a
// running service.
package bootstrap

import (
	"fmt"
	"log"

	"github.com/jonesrussell/referer-classifier/internal/config"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// LoadConfig loads configuration, falling back to defaults when the config
// file is missing.
func LoadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Warning: failed to load config file (%s), using defaults: %v", configPath, err)
		return config.Defaults(), nil
	}
	return cfg, nil
}

// CreateLogger creates the service logger from configuration.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l.With(logger.String("service", cfg.Service.Name)), nil
}
