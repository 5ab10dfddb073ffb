package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// flushTimeout is the context timeout for each flush operation.
const flushTimeout = 5 * time.Second

// EventInserter persists batches of referer events.
type EventInserter interface {
	InsertBatch(ctx context.Context, events []domain.RefererEvent) error
}

// Store drains a Buffer and batch-inserts its events.
//
// Events accumulate until either the flush interval elapses or the pending
// batch reaches the flush threshold. A failed flush logs and drops the batch;
// classification traffic is never blocked on the database.
type Store struct {
	inserter       EventInserter
	buffer         *Buffer
	log            logger.Logger
	flushInterval  time.Duration
	flushThreshold int
	wg             sync.WaitGroup
}

// NewStore creates a Store that reads events from buffer and batch-inserts
// them through inserter.
func NewStore(
	inserter EventInserter,
	buffer *Buffer,
	log logger.Logger,
	flushInterval time.Duration,
	flushThreshold int,
) *Store {
	return &Store{
		inserter:       inserter,
		buffer:         buffer,
		log:            log,
		flushInterval:  flushInterval,
		flushThreshold: flushThreshold,
	}
}

// Run starts the background flush loop. It returns when ctx is cancelled or
// the buffer is closed, after a final flush of pending events.
func (s *Store) Run(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Wait blocks until the flush loop has exited.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	pending := make([]domain.RefererEvent, 0, s.flushThreshold)

	for {
		select {
		case event := <-s.buffer.events:
			pending = append(pending, event)
			if len(pending) >= s.flushThreshold {
				pending = s.flush(pending)
			}

		case <-ticker.C:
			pending = s.flush(pending)

		case <-s.buffer.closed:
			pending = s.drain(pending)
			s.flush(pending)
			return

		case <-ctx.Done():
			pending = s.drain(pending)
			s.flush(pending)
			return
		}
	}
}

// drain collects whatever is still queued in the buffer channel.
func (s *Store) drain(pending []domain.RefererEvent) []domain.RefererEvent {
	for {
		select {
		case event := <-s.buffer.events:
			pending = append(pending, event)
		default:
			return pending
		}
	}
}

// flush writes pending events and returns an empty slice for reuse.
func (s *Store) flush(pending []domain.RefererEvent) []domain.RefererEvent {
	if len(pending) == 0 {
		return pending
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := s.inserter.InsertBatch(ctx, pending); err != nil {
		s.log.Error("Failed to flush referer events, dropping batch",
			logger.Int("batch_size", len(pending)),
			logger.Error(err),
		)
	} else {
		s.log.Debug("Flushed referer events",
			logger.Int("batch_size", len(pending)),
		)
	}

	return pending[:0]
}
