package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentiment values allowed on an article.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ErrDuplicateURL is returned by Create when an article with the same URL
// already exists. The unique index on articles.url is the real guarantee;
// two concurrent inserts of the same URL can both pass an existence check,
// so callers must treat this error as "already stored, skip".
var ErrDuplicateURL = errors.New("article url already exists")

// Article represents a persisted news article.
type Article struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Summary     string      `json:"summary"`
	AISummary   string      `json:"ai_summary,omitempty"`
	URL         string      `json:"url"`
	SourceName  string      `json:"source_name"`
	SourceURL   string      `json:"source_url"`
	CategoryID  uuid.UUID   `json:"category_id"`
	Tags        []string    `json:"tags,omitempty"`
	PublishedAt time.Time   `json:"published_at"`
	ImageURL    string      `json:"image_url,omitempty"`
	Author      string      `json:"author,omitempty"`
	ReadingTime int         `json:"reading_time"`
	Sentiment   string      `json:"sentiment"`
	Importance  int         `json:"importance"`
	Monitored   bool        `json:"monitored"`
	MonitoredBy []uuid.UUID `json:"monitored_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

const articleColumns = `id, title, content, summary, ai_summary, url, source_name,
	       source_url, category_id, tags, published_at, image_url, author,
	       reading_time, sentiment, importance, monitored, created_at, updated_at`

// ArticleStore provides data access methods for articles.
type ArticleStore struct {
	pool *pgxpool.Pool
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(pool *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

// scannable is an interface for pgx Row and Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanArticle scans a single article row, handling nullable columns.
func scanArticle(row scannable) (*Article, error) {
	var a Article
	var tagsRaw []byte
	var imageURL *string
	var categoryID *uuid.UUID
	if err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Summary, &a.AISummary, &a.URL,
		&a.SourceName, &a.SourceURL, &categoryID, &tagsRaw, &a.PublishedAt,
		&imageURL, &a.Author, &a.ReadingTime, &a.Sentiment, &a.Importance,
		&a.Monitored, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("article scan: %w", err)
	}
	a.Tags = scanJSONStrings(tagsRaw)
	if imageURL != nil {
		a.ImageURL = *imageURL
	}
	if categoryID != nil {
		a.CategoryID = *categoryID
	}
	return &a, nil
}

// scanJSONStrings unmarshals a JSONB array column (scanned as []byte) into a
// []string. Malformed or empty values yield nil.
func scanJSONStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Create inserts a new article. A unique-index violation on url is mapped to
// ErrDuplicateURL so re-ingestion of a known item is a skip, not a failure.
func (s *ArticleStore) Create(ctx context.Context, article *Article) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.Sentiment == "" {
		article.Sentiment = SentimentNeutral
	}

	tagsJSON, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("article create: marshal tags: %w", err)
	}

	// Store NULL rather than an empty image URL.
	var imageURL *string
	if article.ImageURL != "" {
		imageURL = &article.ImageURL
	}
	// Uncategorized articles (manual submissions) store NULL.
	var categoryID *uuid.UUID
	if article.CategoryID != uuid.Nil {
		categoryID = &article.CategoryID
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO articles (id, title, content, summary, ai_summary, url,
		                      source_name, source_url, category_id, tags,
		                      published_at, image_url, author, reading_time,
		                      sentiment, importance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`,
		article.ID, article.Title, article.Content, article.Summary,
		article.AISummary, article.URL, article.SourceName, article.SourceURL,
		categoryID, tagsJSON, article.PublishedAt, imageURL,
		article.Author, article.ReadingTime, article.Sentiment, article.Importance,
	).Scan(&article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateURL
		}
		return fmt.Errorf("article create: %w", err)
	}
	return nil
}

// ExistsByURL checks whether an article with the given URL already exists.
func (s *ArticleStore) ExistsByURL(ctx context.Context, rawURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)`, rawURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("article exists by url: %w", err)
	}
	return exists, nil
}

// GetByID returns a single article, including the IDs of users monitoring it.
func (s *ArticleStore) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("article get: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT user_id FROM monitors WHERE article_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("article get monitors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("article monitor scan: %w", err)
		}
		a.MonitoredBy = append(a.MonitoredBy, userID)
	}
	return a, rows.Err()
}

// List returns articles ordered newest-first, optionally filtered by category.
func (s *ArticleStore) List(ctx context.Context, categoryID uuid.UUID, limit, offset int) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	args := []any{}
	if categoryID != uuid.Nil {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += fmt.Sprintf(` ORDER BY published_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("article list: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("article list: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// Count returns the number of stored articles, optionally per category.
func (s *ArticleStore) Count(ctx context.Context, categoryID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM articles`
	args := []any{}
	if categoryID != uuid.Nil {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("article count: %w", err)
	}
	return count, nil
}

// ListForDigest returns articles in a category published since the given time,
// ranked by importance then recency. This is the digest composer's selection
// query.
func (s *ArticleStore) ListForDigest(ctx context.Context, categoryID uuid.UUID, since time.Time, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE category_id = $1 AND published_at >= $2
		ORDER BY importance DESC, published_at DESC
		LIMIT $3
	`, categoryID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("article list for digest: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("article list for digest: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// Monitor records a user watching an article and flips the monitored flag.
// Returns false if the user was already monitoring it.
func (s *ArticleStore) Monitor(ctx context.Context, articleID, userID uuid.UUID, notes string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO monitors (user_id, article_id, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, article_id) DO NOTHING
	`, userID, articleID, notes)
	if err != nil {
		return false, fmt.Errorf("article monitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE articles SET monitored = true, updated_at = now() WHERE id = $1
	`, articleID)
	if err != nil {
		return false, fmt.Errorf("article monitor flag: %w", err)
	}
	return true, nil
}

// Unmonitor removes a user's watch on an article; the monitored flag is
// cleared once no watchers remain.
func (s *ArticleStore) Unmonitor(ctx context.Context, articleID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM monitors WHERE user_id = $1 AND article_id = $2
	`, userID, articleID)
	if err != nil {
		return fmt.Errorf("article unmonitor: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE articles
		SET monitored = EXISTS(SELECT 1 FROM monitors WHERE article_id = $1),
		    updated_at = now()
		WHERE id = $1
	`, articleID)
	if err != nil {
		return fmt.Errorf("article unmonitor flag: %w", err)
	}
	return nil
}

// ListMonitored returns the articles a user is watching, newest watch first.
func (s *ArticleStore) ListMonitored(ctx context.Context, userID uuid.UUID) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+prefixedArticleColumns("a")+`
		FROM articles a
		JOIN monitors m ON m.article_id = a.id
		WHERE m.user_id = $1
		ORDER BY m.added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("article list monitored: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("article list monitored: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// UpdateAISummary stores the AI-generated summary for an article.
func (s *ArticleStore) UpdateAISummary(ctx context.Context, id uuid.UUID, summary string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE articles SET ai_summary = $1, updated_at = now() WHERE id = $2
	`, summary, id)
	if err != nil {
		return fmt.Errorf("article update ai summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article not found: %s", id)
	}
	return nil
}

// ListNeedingSummary returns articles with content but no AI summary yet,
// newest first. Used by the backfill job.
func (s *ArticleStore) ListNeedingSummary(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE content != '' AND ai_summary = ''
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("article list needing summary: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("article list needing summary: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// prefixedArticleColumns qualifies the article column list with a table alias
// for join queries.
func prefixedArticleColumns(alias string) string {
	cols := []string{
		"id", "title", "content", "summary", "ai_summary", "url", "source_name",
		"source_url", "category_id", "tags", "published_at", "image_url",
		"author", "reading_time", "sentiment", "importance", "monitored",
		"created_at", "updated_at",
	}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
