package dedup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"scrapestream/internal/core"
	"scrapestream/internal/storage"
)

// Timestamp accepts a candidate iff its own timestamp is strictly newer than
// the stored cursor. After every cycle the cursor takes the batch's feed-level
// updated-time, not the max candidate timestamp; the feed's own clock is
// treated as authoritative even when entries arrive out of order within one
// revision.
type Timestamp struct {
	store  storage.Store
	key    string
	loaded bool
	dirty  bool
	cursor time.Time
	next   time.Time
}

func NewTimestamp(store storage.Store, sourceID string) *Timestamp {
	return &Timestamp{
		store: store,
		key:   cursorKey(sourceID, keyLastUpdated),
	}
}

func (t *Timestamp) Init(ctx context.Context) error {
	_, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}
	if ok {
		return nil
	}

	// First activation: baseline at the epoch so the initial poll treats
	// everything currently published as new.
	if err := t.store.Set(ctx, t.key, "0"); err != nil {
		return fmt.Errorf("failed to initialize cursor: %w", err)
	}
	return t.store.Flush(ctx)
}

func (t *Timestamp) Filter(ctx context.Context, batch *core.Batch) ([]core.Item, error) {
	if err := t.load(ctx); err != nil {
		return nil, err
	}

	if batch.Updated.IsZero() {
		return nil, fmt.Errorf("batch carries no updated time")
	}

	var fresh []core.Item
	if batch.Updated.After(t.cursor) {
		for _, c := range batch.Candidates {
			if c.Published.After(t.cursor) {
				fresh = append(fresh, c.Item)
			}
		}
	}

	t.next = batch.Updated
	t.dirty = true
	return fresh, nil
}

func (t *Timestamp) Commit(ctx context.Context) error {
	if !t.dirty {
		return nil
	}

	encoded := strconv.FormatInt(t.next.Unix(), 10)
	if err := t.store.Set(ctx, t.key, encoded); err != nil {
		return fmt.Errorf("failed to stage cursor: %w", err)
	}
	if err := t.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush cursor: %w", err)
	}

	t.cursor = t.next
	t.dirty = false
	return nil
}

func (t *Timestamp) load(ctx context.Context) error {
	if t.loaded {
		return nil
	}

	value, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}
	if ok {
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("corrupt cursor %q: %w", value, err)
		}
		if seconds > 0 {
			t.cursor = time.Unix(int64(seconds), 0)
		}
	}

	t.loaded = true
	return nil
}
