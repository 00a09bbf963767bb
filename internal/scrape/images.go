// Package scrape pulls page-level metadata that RSS feeds often omit, such as
// preview images, by visiting the article's own page.
package scrape

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

const scrapeUserAgent = "prwee/1.0 (+https://github.com/prwee/prwee)"

// ImageScraper extracts social preview images from article pages. It keeps a
// per-domain rate limit so batch ingestion stays polite to publishers.
type ImageScraper struct {
	userAgent string
}

func NewImageScraper() *ImageScraper {
	return &ImageScraper{userAgent: scrapeUserAgent}
}

// newCollector builds a fresh collector per call so handler state never leaks
// between pages.
func (s *ImageScraper) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	)

	// 1 request/sec per domain, 2 in flight.
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       1 * time.Second,
		RandomDelay: 500 * time.Millisecond,
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9,ru;q=0.8")
	})

	return c
}

// ExtractImageURL fetches a page and returns the og:image or twitter:image
// meta content. Extraction is best-effort: any failure, including the 10
// second timeout, yields an empty string.
func (s *ImageScraper) ExtractImageURL(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := s.newCollector()

	var (
		imageURL string
		mu       sync.Mutex
	)

	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		mu.Lock()
		if imageURL == "" {
			imageURL = strings.TrimSpace(e.Attr("content"))
		}
		mu.Unlock()
	})

	// Fallback: twitter:image.
	c.OnHTML(`meta[name="twitter:image"]`, func(e *colly.HTMLElement) {
		mu.Lock()
		if imageURL == "" {
			imageURL = strings.TrimSpace(e.Attr("content"))
		}
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		// Image extraction is best-effort.
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Visit(pageURL)
		c.Wait()
	}()

	select {
	case <-ctx.Done():
		return ""
	case <-done:
	}

	return imageURL
}
