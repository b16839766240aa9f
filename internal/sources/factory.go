package sources

import (
	"fmt"

	"scrapestream/internal/config"
	"scrapestream/internal/core"
)

// New builds the extractor for a configured source. The strategy tag is a
// closed set; config validation rejects anything else before this runs.
func New(cfg config.SourceConfig) (core.Extractor, error) {
	switch cfg.Strategy {
	case config.StrategyFeed:
		return NewFeedSource(cfg.Name, cfg.URL), nil
	case config.StrategyMarkup:
		return NewMarkupSource(cfg.Name, cfg.URL, cfg.Selectors), nil
	default:
		return nil, fmt.Errorf("unsupported extraction strategy: %s", cfg.Strategy)
	}
}
