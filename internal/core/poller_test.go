package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubExtractor struct {
	batch *Batch
	err   error
	calls int
}

func (s *stubExtractor) Name() string { return "stub" }

func (s *stubExtractor) Extract(ctx context.Context) (*Batch, error) {
	s.calls++
	return s.batch, s.err
}

type stubDeduper struct {
	inited    bool
	filtered  int
	committed int
}

func (s *stubDeduper) Init(ctx context.Context) error { s.inited = true; return nil }

func (s *stubDeduper) Filter(ctx context.Context, batch *Batch) ([]Item, error) {
	s.filtered++
	items := make([]Item, 0, len(batch.Candidates))
	for _, c := range batch.Candidates {
		items = append(items, c.Item)
	}
	return items, nil
}

func (s *stubDeduper) Commit(ctx context.Context) error { s.committed++; return nil }

func TestPollerCycleEnqueuesAcceptedItems(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(16, 0)

	extractor := &stubExtractor{batch: &Batch{
		Updated: time.Now(),
		Candidates: []Candidate{
			{Item: Item{Title: "one"}},
			{Item: Item{Title: "two"}},
		},
	}}
	deduper := &stubDeduper{}

	poller := NewPoller(extractor, deduper, queue, time.Minute)
	poller.cycle(ctx)

	if deduper.filtered != 1 {
		t.Errorf("Filter called %d times, want 1", deduper.filtered)
	}
	if deduper.committed != 1 {
		t.Errorf("Commit called %d times, want 1", deduper.committed)
	}

	if got := <-queue.Items(); got.Title != "one" {
		t.Errorf("first queued item = %q, want %q", got.Title, "one")
	}
	if got := <-queue.Items(); got.Title != "two" {
		t.Errorf("second queued item = %q, want %q", got.Title, "two")
	}
}

func TestPollerCycleAbortsOnExtractionFailure(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(16, 0)

	extractor := &stubExtractor{err: errors.New("connection refused")}
	deduper := &stubDeduper{}

	poller := NewPoller(extractor, deduper, queue, time.Minute)
	poller.cycle(ctx)

	if deduper.filtered != 0 {
		t.Error("Filter must not run after a failed extraction")
	}
	if deduper.committed != 0 {
		t.Error("Commit must not run after a failed extraction")
	}

	select {
	case item := <-queue.Items():
		t.Errorf("unexpected queued item %q", item.Title)
	default:
	}
}

func TestPollerRunRetriesAfterFailure(t *testing.T) {
	queue := NewQueue(16, 0)
	extractor := &stubExtractor{err: errors.New("transient outage")}
	deduper := &stubDeduper{}

	poller := NewPoller(extractor, deduper, queue, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	if !deduper.inited {
		t.Error("Run must initialize the cursor")
	}
	// Immediate first cycle plus interval retries; the loop must survive
	// every failure.
	if extractor.calls < 2 {
		t.Errorf("extractor called %d times, want at least 2", extractor.calls)
	}
}
