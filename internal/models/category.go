package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RSSSource is one remote feed embedded in a category. Sources carry their own
// active flag so a single feed can be paused without deactivating the category.
type RSSSource struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Category groups articles by topic and owns the RSS sources feeding it.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Active      bool       `json:"active"`
	RSSSources  []RSSSource `json:"rss_sources"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const categoryColumns = `id, name, slug, description, icon, color, parent_id,
	       active, rss_sources, created_at, updated_at`

// CategoryStore provides data access methods for categories.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

func scanCategory(row scannable) (*Category, error) {
	var c Category
	var sourcesRaw []byte
	if err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color,
		&c.ParentID, &c.Active, &sourcesRaw, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("category scan: %w", err)
	}
	if len(sourcesRaw) > 0 {
		if err := json.Unmarshal(sourcesRaw, &c.RSSSources); err != nil {
			return nil, fmt.Errorf("category unmarshal rss_sources: %w", err)
		}
	}
	return &c, nil
}

// GetBySlug returns a category by its slug.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("category get by slug: %w", err)
	}
	return c, nil
}

// GetByID returns a category by its UUID.
func (s *CategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("category get by id: %w", err)
	}
	return c, nil
}

// List returns all categories, optionally filtered to children of a parent.
func (s *CategoryStore) List(ctx context.Context, parentID uuid.UUID) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	args := []any{}
	if parentID != uuid.Nil {
		query += ` WHERE parent_id = $1`
		args = append(args, parentID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category list: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("category list: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// ListActive returns active categories that have at least one RSS source.
// This is the feed source registry for an ingestion run.
func (s *CategoryStore) ListActive(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE active = true AND jsonb_array_length(rss_sources) > 0
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("category list active: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("category list active: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// Create inserts a new category.
func (s *CategoryStore) Create(ctx context.Context, category *Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.RSSSources == nil {
		category.RSSSources = []RSSSource{}
	}

	sourcesJSON, err := json.Marshal(category.RSSSources)
	if err != nil {
		return fmt.Errorf("category create: marshal rss_sources: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, slug, description, icon, color,
		                        parent_id, active, rss_sources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`,
		category.ID, category.Name, category.Slug, category.Description,
		category.Icon, category.Color, category.ParentID, category.Active,
		sourcesJSON,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("category create: %w", err)
	}
	return nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, category *Category) error {
	sourcesJSON, err := json.Marshal(category.RSSSources)
	if err != nil {
		return fmt.Errorf("category update: marshal rss_sources: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, icon = $4, color = $5,
		    parent_id = $6, active = $7, rss_sources = $8, updated_at = now()
		WHERE id = $9
	`,
		category.Name, category.Slug, category.Description, category.Icon,
		category.Color, category.ParentID, category.Active, sourcesJSON,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("category update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category not found: %s", category.ID)
	}
	return nil
}
