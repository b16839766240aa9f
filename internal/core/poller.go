package core

import (
	"context"
	"log/slog"
	"time"
)

// Poller runs the fetch-extract-dedup-enqueue-persist loop for one source.
// Cycles are strictly sequential per source and the loop never terminates on
// extraction failure; a failed cycle is retried after the normal interval.
type Poller struct {
	source   Extractor
	dedup    Deduper
	queue    *Queue
	interval time.Duration
}

func NewPoller(source Extractor, dedup Deduper, queue *Queue, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Poller{
		source:   source,
		dedup:    dedup,
		queue:    queue,
		interval: interval,
	}
}

func (p *Poller) Run(ctx context.Context) {
	if err := p.dedup.Init(ctx); err != nil {
		slog.Error("Failed to initialize cursor", "source", p.source.Name(), "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	slog.Info("Checking source", "source", p.source.Name())

	batch, err := p.source.Extract(ctx)
	if err != nil {
		slog.Warn("Extraction failed, retrying next cycle", "source", p.source.Name(), "error", err)
		return
	}

	fresh, err := p.dedup.Filter(ctx, batch)
	if err != nil {
		slog.Warn("Dedup failed, retrying next cycle", "source", p.source.Name(), "error", err)
		return
	}

	for _, item := range fresh {
		if err := p.queue.Push(ctx, item); err != nil {
			return
		}
		slog.Info("Queued new item", "source", p.source.Name(), "title", item.Title)
	}

	// The batch counts as delivered only once the cursor is flushed; a crash
	// before this point re-delivers on restart, never drops.
	if err := p.dedup.Commit(ctx); err != nil {
		slog.Error("Cursor commit failed, items may repeat after restart", "source", p.source.Name(), "error", err)
	}
}
