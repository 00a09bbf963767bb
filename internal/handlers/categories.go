package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prwee/prwee/internal/models"
)

// CategoriesHandler groups category-related HTTP handlers.
type CategoriesHandler struct {
	Categories *models.CategoryStore
}

// List handles GET /api/categories?parent=.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	parentID := uuid.Nil
	if parent := r.URL.Query().Get("parent"); parent != "" {
		id, err := uuid.Parse(parent)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid parent id", "")
			return
		}
		parentID = id
	}

	categories, err := h.Categories.List(r.Context(), parentID)
	if err != nil {
		slog.Error("list categories", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list categories", "")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	respondData(w, http.StatusOK, categories)
}

type createCategoryRequest struct {
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	Color       string             `json:"color"`
	ParentID    *uuid.UUID         `json:"parent_id"`
	RSSSources  []models.RSSSource `json:"rss_sources"`
	Active      *bool              `json:"active"`
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Name == "" || req.Slug == "" {
		respondError(w, http.StatusBadRequest, "name and slug are required", "")
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentID:    req.ParentID,
		RSSSources:  req.RSSSources,
		Active:      true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := h.Categories.Create(r.Context(), category); err != nil {
		slog.Error("create category", "slug", req.Slug, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create category", "")
		return
	}
	respondData(w, http.StatusCreated, category)
}

// Update handles PUT /api/categories/{id}. Absent fields keep their stored
// values; rss_sources, when present, replaces the whole list.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id", "")
		return
	}

	category, err := h.Categories.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "category not found", "")
		return
	}

	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Slug != "" {
		category.Slug = req.Slug
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.Icon != "" {
		category.Icon = req.Icon
	}
	if req.Color != "" {
		category.Color = req.Color
	}
	if req.ParentID != nil {
		category.ParentID = req.ParentID
	}
	if req.RSSSources != nil {
		category.RSSSources = req.RSSSources
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := h.Categories.Update(r.Context(), category); err != nil {
		slog.Error("update category", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to update category", "")
		return
	}
	respondData(w, http.StatusOK, category)
}
