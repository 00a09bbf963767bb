package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/models"
)

type staticCategories struct {
	categories []models.Category
}

func (s *staticCategories) ListActive(ctx context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func TestRunnerIsolatesFailingSources(t *testing.T) {
	good := rssServer(t, testRSS)

	categories := &staticCategories{categories: []models.Category{
		{
			Name: "Tech",
			Slug: "tech",
			RSSSources: []models.RSSSource{
				{Name: "good", URL: good.URL, Active: true},
				{Name: "down", URL: "http://127.0.0.1:1", Active: true},
				{Name: "paused", URL: good.URL, Active: false},
			},
		},
	}}

	store := newMemStore()
	runner := &Runner{
		Categories:  categories,
		Persister:   NewPersister(store),
		Fetcher:     NewFetcher(2 * time.Second),
		Tables:      DefaultTables(),
		Concurrency: 2,
	}

	report := runner.Run(context.Background())

	// The paused source is never attempted; the unreachable one fails
	// without affecting the good one.
	assert.Equal(t, 2, report.Sources)
	assert.Equal(t, 1, report.FailedSources)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Saved)
	assert.Len(t, store.urls, 2)
}

func TestRunnerSecondRunSavesNothing(t *testing.T) {
	good := rssServer(t, testRSS)

	categories := &staticCategories{categories: []models.Category{
		{
			Name: "Tech",
			Slug: "tech",
			RSSSources: []models.RSSSource{
				{Name: "good", URL: good.URL, Active: true},
			},
		},
	}}

	store := newMemStore()
	runner := &Runner{
		Categories: categories,
		Persister:  NewPersister(store),
		Fetcher:    NewFetcher(2 * time.Second),
		Tables:     DefaultTables(),
	}

	first := runner.Run(context.Background())
	require.Equal(t, 2, first.Saved)

	second := runner.Run(context.Background())
	assert.Equal(t, 2, second.Fetched)
	assert.Equal(t, 0, second.Saved)
}

func TestRunnerNoActiveSources(t *testing.T) {
	runner := &Runner{
		Categories: &staticCategories{},
		Persister:  NewPersister(newMemStore()),
		Fetcher:    NewFetcher(time.Second),
		Tables:     DefaultTables(),
	}

	report := runner.Run(context.Background())
	assert.Zero(t, report.Sources)
	assert.Zero(t, report.Saved)
}
