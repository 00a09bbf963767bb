// Package digest composes category digests: a ranked article selection, basic
// statistics, and a narrative layer that prefers the AI client but always has
// a deterministic fallback.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/models"
)

// importanceThreshold splits a digest's articles into important and regular.
const importanceThreshold = 7

// ArticleLister supplies the ranked article selection for a digest window.
type ArticleLister interface {
	ListForDigest(ctx context.Context, categoryID uuid.UUID, since time.Time, limit int) ([]models.Article, error)
}

// Analyzer generates the AI narrative layer. Any error degrades the digest to
// its statistical synopsis.
type Analyzer interface {
	AnalyzeDigest(ctx context.Context, categoryName string, articles []models.Article) (*ai.DigestAnalysis, error)
}

// Stats summarizes a digest's article selection.
type Stats struct {
	TotalArticles     int      `json:"total_articles"`
	ImportantArticles int      `json:"important_articles"`
	RegularArticles   int      `json:"regular_articles"`
	Sources           []string `json:"sources"`
	AverageImportance float64  `json:"average_importance"`
}

// Period is the digest's time window.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// Digest is a composed category digest ready for rendering or delivery.
type Digest struct {
	Category    CategoryInfo       `json:"category"`
	Period      Period             `json:"period"`
	Summary     string             `json:"summary"`
	AI          *ai.DigestAnalysis `json:"ai,omitempty"`
	Stats       Stats              `json:"stats"`
	Important   []models.Article   `json:"important"`
	Regular     []models.Article   `json:"regular"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type CategoryInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Composer builds digests from the article store, with an optional analyzer
// for the narrative layer.
type Composer struct {
	articles ArticleLister
	analyzer Analyzer // nil disables the AI layer
}

func NewComposer(articles ArticleLister, analyzer Analyzer) *Composer {
	return &Composer{articles: articles, analyzer: analyzer}
}

// Compose selects the category's articles for the last `days` days, splits
// them by importance, and attaches stats plus a synopsis. The AI narrative is
// best-effort: on any analyzer error the digest ships with the statistical
// summary alone.
func (c *Composer) Compose(ctx context.Context, category *models.Category, days, limit int) (*Digest, error) {
	if days <= 0 {
		days = 1
	}
	if limit <= 0 {
		limit = 10
	}

	now := time.Now()
	since := now.AddDate(0, 0, -days)

	articles, err := c.articles.ListForDigest(ctx, category.ID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("digest: list articles: %w", err)
	}

	var important, regular []models.Article
	for _, a := range articles {
		if a.Importance >= importanceThreshold {
			important = append(important, a)
		} else {
			regular = append(regular, a)
		}
	}

	stats := computeStats(articles, important)

	d := &Digest{
		Category: CategoryInfo{ID: category.ID, Name: category.Name, Slug: category.Slug},
		Period: Period{
			StartDate: since.Format("2006-01-02"),
			EndDate:   now.Format("2006-01-02"),
			Days:      days,
		},
		Summary:     Synopsis(articles, category.Name, days),
		Stats:       stats,
		Important:   important,
		Regular:     regular,
		GeneratedAt: now,
	}

	if c.analyzer != nil && len(articles) > 0 {
		analysis, err := c.analyzer.AnalyzeDigest(ctx, category.Name, articles)
		if err != nil {
			slog.Warn("digest: ai narrative unavailable, using statistical summary",
				"category", category.Slug, "err", err)
		} else {
			d.AI = analysis
		}
	}

	return d, nil
}

func computeStats(articles, important []models.Article) Stats {
	stats := Stats{
		TotalArticles:     len(articles),
		ImportantArticles: len(important),
		RegularArticles:   len(articles) - len(important),
		Sources:           distinctSources(articles),
	}
	if len(articles) > 0 {
		sum := 0
		for _, a := range articles {
			sum += a.Importance
		}
		// Round to one decimal place like the rendered value.
		stats.AverageImportance = math.Round(float64(sum)/float64(len(articles))*10) / 10
	}
	return stats
}

// Synopsis builds the deterministic one-paragraph summary. It always names
// the article count and, when present, up to three sources.
func Synopsis(articles []models.Article, categoryName string, days int) string {
	if len(articles) == 0 {
		return fmt.Sprintf("За последние %s в категории %q не было опубликовано новых статей.", dayWord(days), categoryName)
	}

	importantCount := 0
	for _, a := range articles {
		if a.Importance >= importanceThreshold {
			importantCount++
		}
	}
	sources := distinctSources(articles)

	var sb strings.Builder
	fmt.Fprintf(&sb, "За последние %s в категории %q было опубликовано %d статей", dayWord(days), categoryName, len(articles))
	if importantCount > 0 {
		fmt.Fprintf(&sb, ", из которых %d являются важными", importantCount)
	}
	if len(sources) > 0 {
		top := sources
		if len(top) > 3 {
			top = top[:3]
		}
		fmt.Fprintf(&sb, ". Источники: %s", strings.Join(top, ", "))
		if len(sources) > 3 {
			fmt.Fprintf(&sb, " и еще %d", len(sources)-3)
		}
	}
	sb.WriteString(".")
	return sb.String()
}

// distinctSources returns source names in first-seen order, which follows the
// importance ranking of the selection.
func distinctSources(articles []models.Article) []string {
	seen := make(map[string]bool, len(articles))
	var sources []string
	for _, a := range articles {
		if a.SourceName == "" || seen[a.SourceName] {
			continue
		}
		seen[a.SourceName] = true
		sources = append(sources, a.SourceName)
	}
	return sources
}

func dayWord(days int) string {
	if days == 1 {
		return "1 день"
	}
	return fmt.Sprintf("%d дней", days)
}
