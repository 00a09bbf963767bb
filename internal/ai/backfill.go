package ai

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prwee/prwee/internal/models"
)

// SummaryStore is the slice of the article store the backfill job needs.
type SummaryStore interface {
	ListNeedingSummary(ctx context.Context, limit int) ([]models.Article, error)
	UpdateAISummary(ctx context.Context, id uuid.UUID, summary string) error
}

// RunSummaryBackfill summarizes articles that have content but no AI summary
// yet. Per-article failures are logged and skipped so one bad completion
// never stalls the batch.
func RunSummaryBackfill(ctx context.Context, store SummaryStore, client *Client, limit int) int {
	articles, err := store.ListNeedingSummary(ctx, limit)
	if err != nil {
		slog.Error("summary backfill: list articles", "err", err)
		return 0
	}
	if len(articles) == 0 {
		return 0
	}

	slog.Info("summary backfill: starting", "articles", len(articles))

	done := 0
	for i := range articles {
		if ctx.Err() != nil {
			slog.Warn("summary backfill: cancelled", "done", done)
			return done
		}
		article := &articles[i]

		summary, err := client.Summarize(ctx, article)
		if err != nil {
			slog.Error("summary backfill: summarize", "article_id", article.ID, "err", err)
			continue
		}
		if summary == "" {
			continue
		}
		if err := store.UpdateAISummary(ctx, article.ID, summary); err != nil {
			slog.Error("summary backfill: update", "article_id", article.ID, "err", err)
			continue
		}
		done++
	}

	slog.Info("summary backfill: complete", "summarized", done)
	return done
}
