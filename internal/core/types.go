package core

import (
	"context"
	"time"
)

// Item is one normalized unit of content extracted from a source. Items are
// immutable once produced; dedup identity is derived from the content, not
// stored on the item.
type Item struct {
	Site    string `json:"site"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// Candidate pairs an extracted item with its own best-effort timestamp.
// The timestamp is zero when the source offers no usable one.
type Candidate struct {
	Item      Item
	Published time.Time
}

// Batch is the result of one extraction pass over a source. Updated is the
// source's own notion of when it last changed; it stays zero for sources
// that expose no reliable time.
type Batch struct {
	Updated    time.Time
	Candidates []Candidate
}

type Extractor interface {
	Name() string
	Extract(ctx context.Context) (*Batch, error)
}

// Deduper decides which candidates of a batch are new and owns the source's
// persisted cursor. Filter records the cursor advance in memory; Commit makes
// it durable. A crash between Filter and Commit re-delivers on restart.
type Deduper interface {
	Init(ctx context.Context) error
	Filter(ctx context.Context, batch *Batch) ([]Item, error)
	Commit(ctx context.Context) error
}

// Sink receives every item the broadcaster drains from the queue. Delivery is
// best-effort; a sink must never block the broadcast loop.
type Sink interface {
	Deliver(item Item)
}
