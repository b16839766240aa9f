package dedup

import (
	"fmt"

	"scrapestream/internal/config"
	"scrapestream/internal/core"
	"scrapestream/internal/storage"
)

const (
	keyLastUpdated = "last_updated"
	keyHashes      = "hashes"
)

// ForStrategy returns the deduper matching an extraction strategy: feed
// sources carry a usable updated-time and get the timestamp cursor, markup
// sources do not and fall back to the bounded hash ring.
func ForStrategy(strategy string, store storage.Store, sourceID string) (core.Deduper, error) {
	switch strategy {
	case config.StrategyFeed:
		return NewTimestamp(store, sourceID), nil
	case config.StrategyMarkup:
		return NewHashRing(store, sourceID), nil
	default:
		return nil, fmt.Errorf("no dedup strategy for %q", strategy)
	}
}

func cursorKey(sourceID, kind string) string {
	return sourceID + "::" + kind
}
