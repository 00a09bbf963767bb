package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/models"
	"github.com/prwee/prwee/internal/notify"
	"github.com/prwee/prwee/internal/storage"
)

// DigestHandler composes and delivers category digests over HTTP.
type DigestHandler struct {
	Categories *models.CategoryStore
	Composer   *digest.Composer
	Notifier   *notify.Notifier // nil when no channel is configured
	Archive    *storage.Client  // optional
}

// Get handles GET /api/digest/{category}?days=&limit=.
func (h *DigestHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.Categories.GetBySlug(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, http.StatusNotFound, "category not found", "")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	d, err := h.Composer.Compose(r.Context(), category, days, limit)
	if err != nil {
		slog.Error("compose digest", "category", category.Slug, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to generate digest", "")
		return
	}
	respondData(w, http.StatusOK, d)
}

// Send handles POST /api/digest/{category}/send: compose, deliver to daily
// subscribers, and archive.
func (h *DigestHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h.Notifier == nil {
		respondError(w, http.StatusBadRequest, "notifications not configured", "")
		return
	}

	category, err := h.Categories.GetBySlug(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, http.StatusNotFound, "category not found", "")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	d, err := h.Composer.Compose(r.Context(), category, days, limit)
	if err != nil {
		slog.Error("compose digest", "category", category.Slug, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to generate digest", "")
		return
	}

	report, err := h.Notifier.SendDigest(r.Context(), d, models.DigestDaily)
	if err != nil {
		slog.Error("send digest", "category", category.Slug, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to send digest", "")
		return
	}

	if h.Archive != nil {
		if err := h.Archive.ArchiveDigest(r.Context(), d, notify.RenderEmailHTML(d)); err != nil {
			slog.Error("archive digest", "category", category.Slug, "err", err)
		}
	}

	respondMessage(w, http.StatusOK, map[string]any{
		"category": category.Slug,
		"sent":     report.Sent,
		"failed":   report.Failed,
	}, "Дайджест отправлен подписчикам")
}
