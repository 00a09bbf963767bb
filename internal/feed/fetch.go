// Package feed implements the ingestion pipeline: fetching remote RSS/Atom
// feeds, normalizing their items into articles, scoring them with keyword
// heuristics, and persisting new items.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// Source is one remote feed endpoint to pull, flattened from a category's
// embedded RSS source list. Immutable during a run.
type Source struct {
	Name         string
	URL          string
	CategoryID   uuid.UUID
	CategorySlug string
}

// RawItem is a single feed entry as the feed library shaped it, with explicit
// optionality per field. It exists only between the fetcher and the
// normalizer and is never persisted.
type RawItem struct {
	Title        string
	Link         string
	Content      string     // full content (content:encoded) if present
	Snippet      string     // description/summary fallback
	PublishedAt  *time.Time // nil when the feed omits or mangles the date
	Author       string
	MediaURL     string // media:content url attribute
	ThumbnailURL string // media:thumbnail url attribute
	Categories   []string
}

const fetchUserAgent = "prwee/1.0 (+https://github.com/prwee/prwee)"

// Fetcher retrieves and parses remote feeds. Fetches for distinct sources
// share no mutable state and are safe to run in parallel.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a Fetcher with the given per-feed timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Fetch retrieves and parses one source's feed, returning its items in feed
// order. Any transport or parse error is returned to the caller, who treats
// it as zero items for this source only.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed fetch %s: create request: %w", src.Name, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch %s: status %d", src.Name, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse %s: %w", src.Name, err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		items = append(items, rawItemFromFeed(it))
	}
	return items, nil
}

// rawItemFromFeed maps a gofeed item onto the pipeline's RawItem shape.
func rawItemFromFeed(it *gofeed.Item) RawItem {
	raw := RawItem{
		Title:       it.Title,
		Link:        it.Link,
		Content:     it.Content,
		Snippet:     it.Description,
		PublishedAt: it.PublishedParsed,
		Categories:  it.Categories,
	}
	if raw.PublishedAt == nil {
		raw.PublishedAt = it.UpdatedParsed
	}

	if it.Author != nil {
		raw.Author = it.Author.Name
	}
	if raw.Author == "" {
		if creator, ok := it.Custom["dc:creator"]; ok {
			raw.Author = creator
		}
	}

	raw.MediaURL, raw.ThumbnailURL = mediaURLs(it)
	if raw.ThumbnailURL == "" && it.Image != nil {
		raw.ThumbnailURL = it.Image.URL
	}

	return raw
}

// mediaURLs pulls media:content and media:thumbnail url attributes from the
// item's namespace extensions.
func mediaURLs(it *gofeed.Item) (content, thumbnail string) {
	media, ok := it.Extensions["media"]
	if !ok {
		return "", ""
	}
	for _, ext := range media["content"] {
		if u := ext.Attrs["url"]; u != "" {
			content = u
			break
		}
	}
	for _, ext := range media["thumbnail"] {
		if u := ext.Attrs["url"]; u != "" {
			thumbnail = u
			break
		}
	}
	return content, thumbnail
}
