package sources

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"scrapestream/internal/core"
)

// FeedSource extracts candidates from an RSS or Atom document. The feed must
// expose a parseable updated-time; a feed without one is treated the same as
// a fetch failure and retried on the next cycle.
type FeedSource struct {
	name    string
	feedURL string
	parser  *gofeed.Parser
}

func NewFeedSource(name, feedURL string) *FeedSource {
	return &FeedSource{
		name:    name,
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
	}
}

func (f *FeedSource) Name() string {
	return f.name
}

func (f *FeedSource) Extract(ctx context.Context) (*core.Batch, error) {
	slog.Debug("Feed source fetching", "source", f.name, "feed_url", f.feedURL)

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	if feed.UpdatedParsed == nil {
		return nil, fmt.Errorf("feed %s reports no updated time", f.feedURL)
	}

	site := feed.Title
	if site == "" {
		site = f.name
	}

	batch := &core.Batch{Updated: *feed.UpdatedParsed}
	for _, entry := range feed.Items {
		batch.Candidates = append(batch.Candidates, core.Candidate{
			Item: core.Item{
				Site:    site,
				Title:   entry.Title,
				Link:    entry.Link,
				Date:    entry.Published,
				Summary: stripHTML(entry.Description),
			},
			Published: entryTime(entry),
		})
	}

	slog.Debug("Feed source retrieved items", "source", f.name, "count", len(batch.Candidates))
	return batch, nil
}

// entryTime prefers the entry's own updated-time, matching the feed-level
// cursor the timestamp strategy compares against.
func entryTime(entry *gofeed.Item) time.Time {
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	return time.Time{}
}

var htmlStripper = bluemonday.StrictPolicy()

// stripHTML removes HTML tags and decodes entities from text
func stripHTML(s string) string {
	s = htmlStripper.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)

	// Limit length to avoid extremely long summaries
	if len(s) > 500 {
		s = s[:497] + "..."
	}

	return s
}
