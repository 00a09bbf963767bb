package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/feed"
	"github.com/prwee/prwee/internal/models"
)

// ArticlesHandler groups article-related HTTP handlers.
type ArticlesHandler struct {
	Articles   *models.ArticleStore
	Categories *models.CategoryStore
	AI         *ai.Client // nil when no API key is configured
	Tables     feed.Tables
}

// List handles GET /api/articles?category=&limit=&page=.
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	categoryID := uuid.Nil
	if slug := r.URL.Query().Get("category"); slug != "" {
		category, err := h.Categories.GetBySlug(r.Context(), slug)
		if err != nil {
			respondError(w, http.StatusNotFound, "category not found", "")
			return
		}
		categoryID = category.ID
	}

	articles, err := h.Articles.List(r.Context(), categoryID, limit, (page-1)*limit)
	if err != nil {
		slog.Error("list articles", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list articles", "")
		return
	}
	total, err := h.Articles.Count(r.Context(), categoryID)
	if err != nil {
		slog.Error("count articles", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list articles", "")
		return
	}

	if articles == nil {
		articles = []models.Article{}
	}

	respondData(w, http.StatusOK, map[string]any{
		"articles": articles,
		"pagination": map[string]int{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + limit - 1) / limit,
		},
	})
}

// Get handles GET /api/articles/{id}.
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid article id", "")
		return
	}

	article, err := h.Articles.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "article not found", "")
		return
	}
	respondData(w, http.StatusOK, article)
}

type createArticleRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name"`
	SourceURL   string     `json:"source_url"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Author      string     `json:"author"`
	ImageURL    string     `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
}

// Create handles POST /api/articles, the manual submission path. Submitted
// articles go through the same summarize and score steps as ingested ones.
func (h *ArticlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Title == "" || req.Content == "" || req.URL == "" {
		respondError(w, http.StatusBadRequest, "title, content and url are required", "")
		return
	}

	article := &models.Article{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    feed.Summarize(req.Content),
		URL:        req.URL,
		SourceName: req.SourceName,
		SourceURL:  req.SourceURL,
		Author:     req.Author,
		ImageURL:   req.ImageURL,
	}
	if article.SourceName == "" {
		article.SourceName = "manual"
	}
	if req.CategoryID != nil {
		article.CategoryID = *req.CategoryID
	}
	if req.PublishedAt != nil {
		article.PublishedAt = *req.PublishedAt
	} else {
		article.PublishedAt = time.Now()
	}
	article.ReadingTime = feed.ReadingTime(article.Content)

	score := feed.ScoreText(h.Tables, article.Title, article.Content)
	article.Importance = score.Importance
	article.Sentiment = score.Sentiment
	article.Tags = score.Tags

	if err := h.Articles.Create(r.Context(), article); err != nil {
		if errors.Is(err, models.ErrDuplicateURL) {
			respondError(w, http.StatusConflict, "article with this url already exists", "")
			return
		}
		slog.Error("create article", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create article", "")
		return
	}

	respondData(w, http.StatusCreated, article)
}

type monitorRequest struct {
	ArticleID uuid.UUID `json:"article_id"`
	UserID    uuid.UUID `json:"user_id"`
	Notes     string    `json:"notes"`
}

// Monitor handles POST /api/articles/monitor.
func (h *ArticlesHandler) Monitor(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.ArticleID == uuid.Nil || req.UserID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "article_id and user_id are required", "")
		return
	}

	created, err := h.Articles.Monitor(r.Context(), req.ArticleID, req.UserID, req.Notes)
	if err != nil {
		slog.Error("monitor article", "article_id", req.ArticleID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to monitor article", "")
		return
	}
	if !created {
		respondError(w, http.StatusConflict, "article already monitored", "")
		return
	}

	respondMessage(w, http.StatusOK, map[string]any{
		"article_id": req.ArticleID,
		"user_id":    req.UserID,
	}, "Статья добавлена в мониторинг")
}

// Unmonitor handles DELETE /api/articles/monitor?article_id=&user_id=.
func (h *ArticlesHandler) Unmonitor(w http.ResponseWriter, r *http.Request) {
	articleID, err := uuid.Parse(r.URL.Query().Get("article_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid article_id", "")
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user_id", "")
		return
	}

	if err := h.Articles.Unmonitor(r.Context(), articleID, userID); err != nil {
		slog.Error("unmonitor article", "article_id", articleID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to unmonitor article", "")
		return
	}

	respondMessage(w, http.StatusOK, nil, "Статья удалена из мониторинга")
}

// ListMonitored handles GET /api/articles/monitor?user_id=.
func (h *ArticlesHandler) ListMonitored(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user_id", "")
		return
	}

	articles, err := h.Articles.ListMonitored(r.Context(), userID)
	if err != nil {
		slog.Error("list monitored articles", "user_id", userID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list monitored articles", "")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	respondData(w, http.StatusOK, articles)
}

type analyzeRequest struct {
	ArticleID      uuid.UUID `json:"article_id"`
	IncludeContext *bool     `json:"include_context"`
}

// Analyze handles POST /api/articles/analyze: the two-pass AI analysis of a
// single article.
func (h *ArticlesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.AI == nil {
		respondError(w, http.StatusBadRequest, "AI not configured", "Добавьте OPENAI_API_KEY в окружение")
		return
	}

	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.ArticleID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "article_id is required", "")
		return
	}
	includeContext := true
	if req.IncludeContext != nil {
		includeContext = *req.IncludeContext
	}

	article, err := h.Articles.GetByID(r.Context(), req.ArticleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "article not found", "")
		return
	}

	categoryName := ""
	if article.CategoryID != uuid.Nil {
		if category, err := h.Categories.GetByID(r.Context(), article.CategoryID); err == nil {
			categoryName = category.Name
		}
	}

	analysis, err := h.AI.AnalyzeArticle(r.Context(), article, categoryName, includeContext)
	if err != nil {
		slog.Error("analyze article", "article_id", article.ID, "err", err)
		respondError(w, http.StatusInternalServerError, "analysis failed", "Ошибка при выполнении AI-анализа")
		return
	}

	respondMessage(w, http.StatusOK, map[string]any{
		"article": map[string]any{
			"id":           article.ID,
			"title":        article.Title,
			"source":       article.SourceName,
			"published_at": article.PublishedAt,
		},
		"analysis": map[string]any{
			"full":       analysis.Full,
			"structured": analysis.Structured,
		},
		"metadata": map[string]any{
			"model":           analysis.Model,
			"tokens":          analysis.Tokens,
			"include_context": includeContext,
			"analyzed_at":     analysis.AnalyzedAt,
		},
	}, "AI-анализ статьи выполнен успешно")
}
