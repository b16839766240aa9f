package core

import (
	"context"
	"log/slog"
)

// Broadcaster drains the queue strictly FIFO and hands each item to every
// sink. Sinks own their failure handling; one unreachable subscriber never
// stalls the loop or the other sinks.
type Broadcaster struct {
	queue *Queue
	sinks []Sink
}

func NewBroadcaster(queue *Queue, sinks ...Sink) *Broadcaster {
	return &Broadcaster{
		queue: queue,
		sinks: sinks,
	}
}

func (b *Broadcaster) Run(ctx context.Context) {
	slog.Info("Broadcaster started", "sinks", len(b.sinks))

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-b.queue.Items():
			for _, sink := range b.sinks {
				sink.Deliver(item)
			}
		}
	}
}
