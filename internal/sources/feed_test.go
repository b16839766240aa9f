package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssDocument = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Site</title>
    <link>https://example.com</link>
    <description>Example feed</description>
    <lastBuildDate>Mon, 01 Jan 2024 12:00:00 +0000</lastBuildDate>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
      <pubDate>Mon, 01 Jan 2024 11:00:00 +0000</pubDate>
      <description>&lt;p&gt;Hello &amp;amp; welcome&lt;/p&gt;</description>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
      <pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate>
      <description>Second summary</description>
    </item>
  </channel>
</rss>`

const rssWithoutUpdated = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Site</title>
    <link>https://example.com</link>
    <description>Example feed</description>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
    </item>
  </channel>
</rss>`

func serveDocument(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFeedSourceExtract(t *testing.T) {
	server := serveDocument(t, "application/rss+xml", rssDocument)
	source := NewFeedSource("example", server.URL)

	batch, err := source.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	wantUpdated := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if !batch.Updated.Equal(wantUpdated) {
		t.Errorf("Updated = %v, want %v", batch.Updated, wantUpdated)
	}

	if len(batch.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(batch.Candidates))
	}

	first := batch.Candidates[0]
	if first.Item.Site != "Example Site" {
		t.Errorf("Site = %q, want %q", first.Item.Site, "Example Site")
	}
	if first.Item.Title != "First post" {
		t.Errorf("Title = %q", first.Item.Title)
	}
	if first.Item.Link != "https://example.com/first" {
		t.Errorf("Link = %q", first.Item.Link)
	}
	if first.Item.Summary != "Hello & welcome" {
		t.Errorf("Summary = %q, want HTML stripped and entities decoded", first.Item.Summary)
	}

	wantPublished := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	if !first.Published.Equal(wantPublished) {
		t.Errorf("Published = %v, want %v", first.Published, wantPublished)
	}
}

func TestFeedSourceRequiresUpdatedTime(t *testing.T) {
	server := serveDocument(t, "application/rss+xml", rssWithoutUpdated)
	source := NewFeedSource("example", server.URL)

	if _, err := source.Extract(context.Background()); err == nil {
		t.Fatal("Extract() should fail for a feed without an updated time")
	}
}

func TestFeedSourceFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	source := NewFeedSource("example", server.URL)
	if _, err := source.Extract(context.Background()); err == nil {
		t.Fatal("Extract() should surface HTTP failures")
	}
}
