package dedup

import (
	"context"
	"encoding/json"
	"fmt"

	"scrapestream/internal/core"
	"scrapestream/internal/storage"
	"scrapestream/internal/utils/hash"
)

// RingCapacity bounds recency for sources without timestamps. The ring must
// hold at least as many hashes as the source displays at once, or items
// falling off the page would be re-announced.
const RingCapacity = 100

// HashRing accepts a candidate iff its content hash is absent from a bounded
// FIFO ring of recently accepted hashes. Accepted hashes append to the tail;
// the head is evicted once capacity is exceeded.
type HashRing struct {
	store  storage.Store
	key    string
	loaded bool
	dirty  bool
	ring   []string
	seen   map[string]struct{}
}

func NewHashRing(store storage.Store, sourceID string) *HashRing {
	return &HashRing{
		store: store,
		key:   cursorKey(sourceID, keyHashes),
	}
}

func (h *HashRing) Init(ctx context.Context) error {
	// An absent ring means nothing has been seen; no seeding required.
	return nil
}

func (h *HashRing) Filter(ctx context.Context, batch *core.Batch) ([]core.Item, error) {
	if err := h.load(ctx); err != nil {
		return nil, err
	}

	var fresh []core.Item
	for _, c := range batch.Candidates {
		digest := hashItem(c.Item)
		if _, ok := h.seen[digest]; ok {
			continue
		}

		h.ring = append(h.ring, digest)
		h.seen[digest] = struct{}{}
		for len(h.ring) > RingCapacity {
			delete(h.seen, h.ring[0])
			h.ring = h.ring[1:]
		}

		fresh = append(fresh, c.Item)
		h.dirty = true
	}

	return fresh, nil
}

func (h *HashRing) Commit(ctx context.Context) error {
	if !h.dirty {
		return nil
	}

	encoded, err := json.Marshal(h.ring)
	if err != nil {
		return fmt.Errorf("failed to encode ring: %w", err)
	}
	if err := h.store.Set(ctx, h.key, string(encoded)); err != nil {
		return fmt.Errorf("failed to stage ring: %w", err)
	}
	if err := h.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush ring: %w", err)
	}

	h.dirty = false
	return nil
}

func (h *HashRing) load(ctx context.Context) error {
	if h.loaded {
		return nil
	}

	h.seen = make(map[string]struct{})

	value, ok, err := h.store.Get(ctx, h.key)
	if err != nil {
		return fmt.Errorf("failed to read ring: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(value), &h.ring); err != nil {
			return fmt.Errorf("corrupt ring: %w", err)
		}
		for _, digest := range h.ring {
			h.seen[digest] = struct{}{}
		}
	}

	h.loaded = true
	return nil
}

func hashItem(item core.Item) string {
	data, _ := json.Marshal(item)
	return hash.Sum(data)
}
