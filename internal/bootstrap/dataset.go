package bootstrap

import (
	"fmt"
	"os"

	"github.com/jonesrussell/referer-classifier/internal/logger"
	"github.com/jonesrussell/referer-classifier/internal/referer"
)

// LoadDataset reads and parses the referer dataset snapshot. The load is
// all-or-nothing: a malformed snapshot fails startup rather than serving a
// partial dataset.
func LoadDataset(path string, log logger.Logger) (referer.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	dataset, err := referer.ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}

	stats := dataset.Stats()
	log.Info("Referer dataset loaded",
		logger.String("path", path),
		logger.Int("entries", stats.Entries),
		logger.Int("sources", stats.Sources),
	)

	return dataset, nil
}
