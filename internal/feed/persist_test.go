package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/models"
)

// memStore is an in-memory ArticleWriter with switchable race behavior.
type memStore struct {
	urls      map[string]bool
	raceOnURL string // Create fails with ErrDuplicateURL for this URL
	failErr   error  // forced error for both operations
}

func newMemStore() *memStore {
	return &memStore{urls: make(map[string]bool)}
}

func (m *memStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	return m.urls[url], nil
}

func (m *memStore) Create(ctx context.Context, article *models.Article) error {
	if m.failErr != nil {
		return m.failErr
	}
	if m.urls[article.URL] || article.URL == m.raceOnURL {
		return models.ErrDuplicateURL
	}
	m.urls[article.URL] = true
	return nil
}

func TestPersisterSave(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := NewPersister(store)

	article := &models.Article{Title: "t", URL: "https://example.com/a"}

	saved, err := p.Save(ctx, article)
	require.NoError(t, err)
	assert.True(t, saved)

	// Second save of the same URL is a silent skip.
	saved, err = p.Save(ctx, article)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestPersisterSaveIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := NewPersister(store)

	article := &models.Article{Title: "t", URL: "https://example.com/a"}
	for i := 0; i < 5; i++ {
		_, err := p.Save(ctx, article)
		require.NoError(t, err)
	}
	assert.Len(t, store.urls, 1)
}

func TestPersisterSaveLosesRace(t *testing.T) {
	// The existence check passes but the insert hits the unique index, as
	// happens when a concurrent run stores the same URL in between.
	ctx := context.Background()
	store := newMemStore()
	store.raceOnURL = "https://example.com/raced"
	p := NewPersister(store)

	saved, err := p.Save(ctx, &models.Article{Title: "t", URL: "https://example.com/raced"})
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestPersisterSavePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failErr = errors.New("connection refused")
	p := NewPersister(store)

	_, err := p.Save(ctx, &models.Article{Title: "t", URL: "https://example.com/a"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}
