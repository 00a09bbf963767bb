package feed

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prwee/prwee/internal/models"
)

// SourceLister yields the active categories whose embedded RSS sources form
// the feed registry for a run.
type SourceLister interface {
	ListActive(ctx context.Context) ([]models.Category, error)
}

// ImageFetcher resolves a page's preview image. Best-effort: an empty string
// means none found.
type ImageFetcher interface {
	ExtractImageURL(ctx context.Context, pageURL string) string
}

// Report summarizes one ingestion run.
type Report struct {
	Sources       int `json:"sources"`
	FailedSources int `json:"failed_sources"`
	Fetched       int `json:"fetched"`
	Saved         int `json:"saved"`
}

// Runner wires the pipeline stages together for a batch ingestion run.
type Runner struct {
	Categories  SourceLister
	Persister   *Persister
	Fetcher     *Fetcher
	Tables      Tables
	Images      ImageFetcher // optional
	Concurrency int
}

// Run executes one ingestion batch: it flattens active categories into feed
// sources, fetches them in parallel under the concurrency limit, and pushes
// each item through normalize → score → persist. A failing source yields zero
// items and never aborts the rest of the batch.
func (r *Runner) Run(ctx context.Context) Report {
	start := time.Now()
	slog.Info("ingestion: starting run")

	categories, err := r.Categories.ListActive(ctx)
	if err != nil {
		slog.Error("ingestion: list active categories", "err", err)
		return Report{}
	}

	sources := flattenSources(categories)
	if len(sources) == 0 {
		slog.Info("ingestion: no active sources configured")
		return Report{}
	}

	slog.Info("ingestion: processing sources", "count", len(sources))

	limit := r.Concurrency
	if limit <= 0 {
		limit = 5
	}

	var fetched, saved, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			items, err := r.Fetcher.Fetch(gctx, src)
			if err != nil {
				// Per-source failure is non-fatal: log and move on.
				slog.Error("ingestion: fetch feed", "source", src.Name, "err", err)
				failed.Add(1)
				return nil
			}
			fetched.Add(int64(len(items)))

			n := r.processItems(gctx, src, items)
			saved.Add(int64(n))

			slog.Info("ingestion: source done",
				"source", src.Name,
				"items", len(items),
				"saved", n,
			)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Sources:       len(sources),
		FailedSources: int(failed.Load()),
		Fetched:       int(fetched.Load()),
		Saved:         int(saved.Load()),
	}

	slog.Info("ingestion: run complete",
		"sources", report.Sources,
		"failed_sources", report.FailedSources,
		"fetched", report.Fetched,
		"saved", report.Saved,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report
}

// processItems normalizes, scores, and persists one source's items, returning
// the number newly saved.
func (r *Runner) processItems(ctx context.Context, src Source, items []RawItem) int {
	saved := 0
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		article, ok := Normalize(item, src, time.Now())
		if !ok {
			slog.Debug("ingestion: skipping untitled, unlinked item", "source", src.Name)
			continue
		}

		score := ScoreText(r.Tables, article.Title, article.Content)
		article.Importance = score.Importance
		article.Sentiment = score.Sentiment
		article.Tags = score.Tags

		// Best-effort preview image when the feed carried none.
		if article.ImageURL == "" && r.Images != nil && article.URL != "" {
			article.ImageURL = r.Images.ExtractImageURL(ctx, article.URL)
		}

		created, err := r.Persister.Save(ctx, article)
		if err != nil {
			slog.Error("ingestion: save article", "url", article.URL, "err", err)
			continue
		}
		if created {
			saved++
		}
	}
	return saved
}

// flattenSources expands each active category's active RSS sources into the
// run's source list.
func flattenSources(categories []models.Category) []Source {
	var sources []Source
	for _, cat := range categories {
		for _, rss := range cat.RSSSources {
			if !rss.Active {
				continue
			}
			sources = append(sources, Source{
				Name:         rss.Name,
				URL:          rss.URL,
				CategoryID:   cat.ID,
				CategorySlug: cat.Slug,
			})
		}
	}
	return sources
}
