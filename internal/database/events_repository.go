package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/referer-classifier/internal/domain"
)

// columnsPerRow is the number of columns inserted per referer event row.
const columnsPerRow = 8

// insertBatchSize is the maximum number of rows per INSERT statement.
const insertBatchSize = 50

// EventsRepository handles database operations for classified referer events.
type EventsRepository struct {
	db *sqlx.DB
}

// NewEventsRepository creates a new referer events repository.
func NewEventsRepository(db *sqlx.DB) *EventsRepository {
	return &EventsRepository{db: db}
}

// MediumStat is the number of recorded events for one medium.
type MediumStat struct {
	Medium string `db:"medium" json:"medium"`
	Count  int    `db:"count"  json:"count"`
}

// SourceStat is the number of recorded events for one named source.
type SourceStat struct {
	Source string `db:"source" json:"source"`
	Medium string `db:"medium" json:"medium"`
	Count  int    `db:"count"  json:"count"`
}

// InsertBatch inserts events in chunks of at most insertBatchSize rows.
func (r *EventsRepository) InsertBatch(ctx context.Context, events []domain.RefererEvent) error {
	for start := 0; start < len(events); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(events) {
			end = len(events)
		}
		if err := r.insertChunk(ctx, events[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventsRepository) insertChunk(ctx context.Context, events []domain.RefererEvent) error {
	if len(events) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*columnsPerRow)

	for i, event := range events {
		base := i * columnsPerRow
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			event.ID,
			event.RefererURL,
			event.RefererHost,
			event.PageHost,
			string(event.Medium),
			event.Source,
			event.SearchTerm,
			event.ClassifiedAt,
		)
	}

	query := `
		INSERT INTO referer_events (
			id, referer_url, referer_host, page_host, medium, source,
			search_term, classified_at
		)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert referer events: %w", err)
	}
	return nil
}

// TotalEvents returns the total number of recorded events.
func (r *EventsRepository) TotalEvents(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM referer_events`

	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("failed to count referer events: %w", err)
	}
	return total, nil
}

// MediumStats returns event counts grouped by medium, largest first.
func (r *EventsRepository) MediumStats(ctx context.Context) ([]MediumStat, error) {
	var stats []MediumStat
	query := `
		SELECT medium, COUNT(*) as count
		FROM referer_events
		GROUP BY medium
		ORDER BY count DESC
	`

	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get medium stats: %w", err)
	}
	return stats, nil
}

// TopSources returns the most frequent named sources, largest first.
// Internal and unknown events carry no source and are excluded.
func (r *EventsRepository) TopSources(ctx context.Context, limit int) ([]SourceStat, error) {
	var stats []SourceStat
	query := `
		SELECT source, medium, COUNT(*) as count
		FROM referer_events
		WHERE source <> ''
		GROUP BY source, medium
		ORDER BY count DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &stats, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get source stats: %w", err)
	}
	return stats, nil
}
