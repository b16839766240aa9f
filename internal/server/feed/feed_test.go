package feed

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scrapestream/internal/core"
)

func TestWindowBoundsItems(t *testing.T) {
	window := NewWindow(5)

	for i := 0; i < 8; i++ {
		window.Deliver(core.Item{Title: fmt.Sprintf("item-%d", i), Link: "https://example.com"})
	}

	feed := window.buildFeed()
	if len(feed.Items) != 5 {
		t.Fatalf("window holds %d items, want 5", len(feed.Items))
	}

	// Newest first, oldest evicted.
	if feed.Items[0].Title != "item-7" {
		t.Errorf("newest = %q, want item-7", feed.Items[0].Title)
	}
	if feed.Items[4].Title != "item-3" {
		t.Errorf("oldest retained = %q, want item-3", feed.Items[4].Title)
	}
}

func TestWindowEndpoints(t *testing.T) {
	window := NewWindow(10)
	window.Deliver(core.Item{
		Site:    "Example",
		Title:   "Hello",
		Link:    "https://example.com/hello",
		Summary: "A summary",
	})

	mux := http.NewServeMux()
	window.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/feed.rss", "application/rss+xml", "<title>Hello</title>"},
		{"/feed.atom", "application/atom+xml", "Hello"},
		{"/feed.json", "application/feed+json", `"Hello"`},
		{"/health", "application/json", `"ok"`},
	}

	for _, tt := range tests {
		resp, err := http.Get(server.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s error: %v", tt.path, err)
		}

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", tt.path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
			t.Errorf("GET %s Content-Type = %q, want prefix %q", tt.path, ct, tt.contentType)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("GET %s read error: %v", tt.path, err)
		}
		if !strings.Contains(string(body), tt.contains) {
			t.Errorf("GET %s body missing %q", tt.path, tt.contains)
		}
	}
}
