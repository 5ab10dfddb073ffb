package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/referer-classifier/internal/config"
	"github.com/jonesrussell/referer-classifier/internal/database"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// SetupDatabase connects to Postgres and builds the events repository.
// It returns (nil, nil, nil) when event persistence is disabled.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, *database.EventsRepository, error) {
	if !cfg.Database.Enabled {
		log.Info("Event persistence disabled, running without Postgres")
		return nil, nil, nil
	}

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	log.Info("Connected to PostgreSQL",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)

	return db, database.NewEventsRepository(db), nil
}
