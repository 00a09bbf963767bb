package notify

import (
	"context"
	"log/slog"

	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/models"
)

// CategoryLister yields the active categories to build digests for.
type CategoryLister interface {
	ListActive(ctx context.Context) ([]models.Category, error)
}

// Archiver stores a delivered digest alongside its rendered HTML.
type Archiver interface {
	ArchiveDigest(ctx context.Context, d *digest.Digest, renderedHTML string) error
}

// RunDigestDispatch composes and delivers a digest for every active category
// to subscribers at the given frequency, archiving each delivered digest. One
// category's failure never stops the others.
func RunDigestDispatch(ctx context.Context, categories CategoryLister, composer *digest.Composer, notifier *Notifier, archive Archiver, frequency string, days int) {
	slog.Info("digest dispatch: starting", "frequency", frequency, "days", days)

	active, err := categories.ListActive(ctx)
	if err != nil {
		slog.Error("digest dispatch: list categories", "err", err)
		return
	}

	totalSent, totalFailed := 0, 0
	for i := range active {
		if ctx.Err() != nil {
			slog.Warn("digest dispatch: cancelled", "remaining", len(active)-i)
			return
		}
		category := &active[i]

		d, err := composer.Compose(ctx, category, days, 10)
		if err != nil {
			slog.Error("digest dispatch: compose", "category", category.Slug, "err", err)
			continue
		}
		if d.Stats.TotalArticles == 0 {
			slog.Debug("digest dispatch: no articles, skipping", "category", category.Slug)
			continue
		}

		report, err := notifier.SendDigest(ctx, d, frequency)
		if err != nil {
			slog.Error("digest dispatch: send", "category", category.Slug, "err", err)
			continue
		}
		totalSent += report.Sent
		totalFailed += report.Failed

		if archive != nil {
			if err := archive.ArchiveDigest(ctx, d, RenderEmailHTML(d)); err != nil {
				slog.Error("digest dispatch: archive", "category", category.Slug, "err", err)
			}
		}
	}

	slog.Info("digest dispatch: complete",
		"categories", len(active),
		"sent", totalSent,
		"failed", totalFailed,
	)
}
