package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"scrapestream/internal/config"
	"scrapestream/internal/core"
)

// MarkupSource extracts candidates from an HTML page using a configured
// selector map. Field extraction fails softly: a sub-selector that matches
// nothing yields an empty string and the item is still produced. A missing or
// unmatched container aborts the whole cycle for this source.
type MarkupSource struct {
	name      string
	pageURL   string
	selectors config.Selectors
	client    *http.Client
}

func NewMarkupSource(name, pageURL string, selectors config.Selectors) *MarkupSource {
	return &MarkupSource{
		name:      name,
		pageURL:   pageURL,
		selectors: selectors,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MarkupSource) Name() string {
	return m.name
}

func (m *MarkupSource) Extract(ctx context.Context) (*core.Batch, error) {
	if m.selectors.Container == "" || m.selectors.Item == "" {
		return nil, fmt.Errorf("container and item selectors are required")
	}

	slog.Debug("Markup source fetching", "source", m.name, "url", m.pageURL)

	doc, err := m.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	container := doc.Find(m.selectors.Container).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("container selector %q matched nothing", m.selectors.Container)
	}

	batch := &core.Batch{}
	container.Find(m.selectors.Item).Each(func(_ int, el *goquery.Selection) {
		item := core.Item{
			Site:    m.name,
			Title:   selectText(el, m.selectors.Title),
			Link:    m.resolveLink(selectAttr(el, m.selectors.Link, "href")),
			Date:    selectText(el, m.selectors.Date),
			Summary: selectText(el, m.selectors.Summary),
		}
		batch.Candidates = append(batch.Candidates, core.Candidate{Item: item})
	})

	slog.Debug("Markup source retrieved items", "source", m.name, "count", len(batch.Candidates))
	return batch, nil
}

func (m *MarkupSource) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

// resolveLink turns a root-relative path into an absolute URL against the
// configured base address.
func (m *MarkupSource) resolveLink(link string) string {
	if strings.HasPrefix(link, "/") && m.selectors.BaseURL != "" {
		return strings.TrimSuffix(m.selectors.BaseURL, "/") + link
	}
	return link
}

func selectText(el *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(el.Find(selector).First().Text())
}

func selectAttr(el *goquery.Selection, selector, attr string) string {
	if selector == "" {
		return ""
	}
	value, _ := el.Find(selector).First().Attr(attr)
	return strings.TrimSpace(value)
}
