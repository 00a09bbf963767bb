package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/prwee/prwee/internal/models"
)

// ArticleWriter is the slice of the article store the persister needs.
type ArticleWriter interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, article *models.Article) error
}

// Persister deduplicates candidate articles by URL and inserts new ones.
type Persister struct {
	store ArticleWriter
}

// NewPersister creates a Persister backed by the given store.
func NewPersister(store ArticleWriter) *Persister {
	return &Persister{store: store}
}

// Save inserts the candidate unless an article with the same URL is already
// stored. The existence check is an optimization only; the store's unique
// index is the real race guarantee, so a duplicate rejection on insert is
// treated as "already exists" rather than an error. Returns true when the
// candidate was newly persisted.
func (p *Persister) Save(ctx context.Context, article *models.Article) (bool, error) {
	exists, err := p.store.ExistsByURL(ctx, article.URL)
	if err != nil {
		return false, fmt.Errorf("persist: check url: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := p.store.Create(ctx, article); err != nil {
		if errors.Is(err, models.ErrDuplicateURL) {
			// Lost the race to a concurrent run; the article is stored.
			return false, nil
		}
		return false, fmt.Errorf("persist: create: %w", err)
	}
	return true, nil
}
