package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/feeds"

	"scrapestream/internal/core"
)

// Window republishes a bounded window of recently broadcast items as RSS,
// Atom, and JSON feeds. It is a pull-style complement to the live socket:
// subscribers who connect late can read back at most the window, never full
// history.
type Window struct {
	size  int
	mu    sync.RWMutex
	items []*feeds.Item
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = 100
	}

	return &Window{
		size:  size,
		items: make([]*feeds.Item, 0, size),
	}
}

// Deliver appends an item to the window, evicting the oldest past capacity.
// Implements core.Sink.
func (w *Window) Deliver(item core.Item) {
	feedItem := &feeds.Item{
		Title:       item.Title,
		Link:        &feeds.Link{Href: item.Link},
		Description: item.Summary,
		Author:      &feeds.Author{Name: item.Site},
		Created:     time.Now(),
	}

	w.mu.Lock()
	w.items = append(w.items, feedItem)
	if len(w.items) > w.size {
		w.items = w.items[len(w.items)-w.size:]
	}
	w.mu.Unlock()
}

func (w *Window) Register(mux *http.ServeMux) {
	mux.HandleFunc("/feed.rss", w.handleRSS)
	mux.HandleFunc("/feed.atom", w.handleAtom)
	mux.HandleFunc("/feed.json", w.handleJSON)
	mux.HandleFunc("/health", w.handleHealth)
}

func (w *Window) buildFeed() *feeds.Feed {
	w.mu.RLock()
	items := make([]*feeds.Item, len(w.items))
	copy(items, w.items)
	w.mu.RUnlock()

	// Newest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return &feeds.Feed{
		Title:       "scrapestream",
		Link:        &feeds.Link{Href: "/feed.rss"},
		Description: "Recently broadcast items",
		Created:     time.Now(),
		Items:       items,
	}
}

func (w *Window) handleRSS(rw http.ResponseWriter, r *http.Request) {
	rss, err := w.buildFeed().ToRss()
	if err != nil {
		slog.Error("Failed to render RSS feed", "error", err)
		http.Error(rw, "failed to render feed", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	rw.Write([]byte(rss))
}

func (w *Window) handleAtom(rw http.ResponseWriter, r *http.Request) {
	atom, err := w.buildFeed().ToAtom()
	if err != nil {
		slog.Error("Failed to render Atom feed", "error", err)
		http.Error(rw, "failed to render feed", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	rw.Write([]byte(atom))
}

func (w *Window) handleJSON(rw http.ResponseWriter, r *http.Request) {
	jsonFeed, err := w.buildFeed().ToJSON()
	if err != nil {
		slog.Error("Failed to render JSON feed", "error", err)
		http.Error(rw, "failed to render feed", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/feed+json; charset=utf-8")
	rw.Write([]byte(jsonFeed))
}

func (w *Window) handleHealth(rw http.ResponseWriter, r *http.Request) {
	w.mu.RLock()
	count := len(w.items)
	w.mu.RUnlock()

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]interface{}{
		"status": "ok",
		"items":  count,
	})
}
