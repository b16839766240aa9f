package core

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Queue is the single ordered channel between all pollers and the
// broadcaster. Pushes are paced by an explicit rate limit so a large batch
// from one source cannot flood subscribers in a burst.
type Queue struct {
	ch      chan Item
	limiter *rate.Limiter
}

func NewQueue(size int, itemDelay time.Duration) *Queue {
	limit := rate.Inf
	if itemDelay > 0 {
		limit = rate.Every(itemDelay)
	}

	return &Queue{
		ch:      make(chan Item, size),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (q *Queue) Push(ctx context.Context, item Item) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}

	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Items() <-chan Item {
	return q.ch
}
