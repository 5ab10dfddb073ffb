//nolint:testpackage // Testing the flush loop requires same package access
package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// fakeInserter records flushed batches.
type fakeInserter struct {
	mu      sync.Mutex
	batches [][]domain.RefererEvent
}

func (f *fakeInserter) InsertBatch(_ context.Context, events []domain.RefererEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]domain.RefererEvent, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeInserter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func event(id string) domain.RefererEvent {
	return domain.RefererEvent{
		ID:           id,
		RefererURL:   "https://www.google.com/search?q=x",
		RefererHost:  "www.google.com",
		Medium:       domain.MediumSearch,
		Source:       "Google",
		ClassifiedAt: time.Now(),
	}
}

func TestBuffer_SendNonBlocking(t *testing.T) {
	buf := NewBuffer(2)

	if !buf.Send(event("a")) {
		t.Error("expected send to succeed")
	}
	if !buf.Send(event("b")) {
		t.Error("expected send to succeed")
	}
	if buf.Send(event("c")) {
		t.Error("expected send to fail when buffer is full")
	}
	if buf.Len() != 2 {
		t.Errorf("expected 2 buffered events, got %d", buf.Len())
	}
}

func TestStore_FlushOnThreshold(t *testing.T) {
	buf := NewBuffer(10)
	ins := &fakeInserter{}
	store := NewStore(ins, buf, logger.NewNop(), time.Hour, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.Run(ctx)

	for _, id := range []string{"a", "b", "c"} {
		if !buf.Send(event(id)) {
			t.Fatalf("send %s failed", id)
		}
	}

	waitFor(t, func() bool { return ins.total() == 3 })

	ins.mu.Lock()
	defer ins.mu.Unlock()
	if len(ins.batches) != 1 || len(ins.batches[0]) != 3 {
		t.Errorf("expected one batch of 3, got %v", ins.batches)
	}
}

func TestStore_FlushOnInterval(t *testing.T) {
	buf := NewBuffer(10)
	ins := &fakeInserter{}
	store := NewStore(ins, buf, logger.NewNop(), 20*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.Run(ctx)

	buf.Send(event("a"))

	waitFor(t, func() bool { return ins.total() == 1 })
}

func TestStore_FinalFlushOnClose(t *testing.T) {
	buf := NewBuffer(10)
	ins := &fakeInserter{}
	store := NewStore(ins, buf, logger.NewNop(), time.Hour, 100)

	store.Run(context.Background())

	buf.Send(event("a"))
	buf.Send(event("b"))
	buf.Close()
	store.Wait()

	if ins.total() != 2 {
		t.Errorf("expected 2 events flushed on close, got %d", ins.total())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
