package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/models"
)

type staticArticles struct {
	articles []models.Article
	err      error
}

func (s *staticArticles) ListForDigest(ctx context.Context, categoryID uuid.UUID, since time.Time, limit int) ([]models.Article, error) {
	return s.articles, s.err
}

type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeDigest(ctx context.Context, categoryName string, articles []models.Article) (*ai.DigestAnalysis, error) {
	return nil, errors.New("completion timeout")
}

type staticAnalyzer struct {
	analysis *ai.DigestAnalysis
}

func (a staticAnalyzer) AnalyzeDigest(ctx context.Context, categoryName string, articles []models.Article) (*ai.DigestAnalysis, error) {
	return a.analysis, nil
}

func digestArticles() []models.Article {
	return []models.Article{
		{Title: "a", Importance: 9, SourceName: "Alpha"},
		{Title: "b", Importance: 3, SourceName: "Beta"},
		{Title: "c", Importance: 7, SourceName: "Alpha"},
		{Title: "d", Importance: 7, SourceName: "Gamma"},
	}
}

func testCategory() *models.Category {
	return &models.Category{ID: uuid.New(), Name: "Технологии", Slug: "tech"}
}

func TestComposeSplitsByImportance(t *testing.T) {
	c := NewComposer(&staticArticles{articles: digestArticles()}, nil)

	d, err := c.Compose(context.Background(), testCategory(), 1, 10)
	require.NoError(t, err)

	require.Len(t, d.Important, 3)
	require.Len(t, d.Regular, 1)
	assert.Equal(t, 9, d.Important[0].Importance)
	assert.Equal(t, "b", d.Regular[0].Title)

	assert.Equal(t, 4, d.Stats.TotalArticles)
	assert.Equal(t, 3, d.Stats.ImportantArticles)
	assert.Equal(t, 1, d.Stats.RegularArticles)
	assert.InDelta(t, 6.5, d.Stats.AverageImportance, 0.001)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, d.Stats.Sources)
}

func TestComposeFallsBackWhenAIFails(t *testing.T) {
	c := NewComposer(&staticArticles{articles: digestArticles()}, failingAnalyzer{})

	d, err := c.Compose(context.Background(), testCategory(), 1, 10)
	require.NoError(t, err)

	// The digest survives the analyzer failure with its statistical summary.
	assert.Nil(t, d.AI)
	assert.Contains(t, d.Summary, "4 статей")
	assert.Contains(t, d.Summary, "Alpha")
}

func TestComposeAttachesAINarrative(t *testing.T) {
	analysis := &ai.DigestAnalysis{Narrative: "Обзор дня", KeyPoints: []string{"один"}}
	c := NewComposer(&staticArticles{articles: digestArticles()}, staticAnalyzer{analysis: analysis})

	d, err := c.Compose(context.Background(), testCategory(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, d.AI)
	assert.Equal(t, "Обзор дня", d.AI.Narrative)
}

func TestComposeEmptyWindow(t *testing.T) {
	c := NewComposer(&staticArticles{}, failingAnalyzer{})

	d, err := c.Compose(context.Background(), testCategory(), 3, 10)
	require.NoError(t, err)

	assert.Zero(t, d.Stats.TotalArticles)
	assert.Nil(t, d.AI)
	assert.Contains(t, d.Summary, "не было опубликовано")
	assert.Equal(t, 3, d.Period.Days)
}

func TestComposeStoreError(t *testing.T) {
	c := NewComposer(&staticArticles{err: errors.New("pool closed")}, nil)

	_, err := c.Compose(context.Background(), testCategory(), 1, 10)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pool closed")
}

func TestSynopsisTruncatesSourceList(t *testing.T) {
	articles := []models.Article{
		{Importance: 5, SourceName: "S1"},
		{Importance: 5, SourceName: "S2"},
		{Importance: 5, SourceName: "S3"},
		{Importance: 5, SourceName: "S4"},
		{Importance: 5, SourceName: "S5"},
	}

	s := Synopsis(articles, "Спорт", 2)
	assert.Contains(t, s, "5 статей")
	assert.Contains(t, s, "S1, S2, S3")
	assert.Contains(t, s, "и еще 2")
	assert.NotContains(t, s, "S4")
}
