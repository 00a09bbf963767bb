package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prwee/prwee/internal/feed"
	"github.com/prwee/prwee/internal/notify"
)

// SystemHandler covers health, manual ingestion, and notification test
// endpoints.
type SystemHandler struct {
	Ingest   *feed.Runner
	Email    *notify.EmailSender    // nil when SMTP is not configured
	Telegram *notify.TelegramSender // nil when no bot token is configured
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// RunIngest handles POST /api/ingest, running one ingestion batch inline and
// returning its report.
func (h *SystemHandler) RunIngest(w http.ResponseWriter, r *http.Request) {
	report := h.Ingest.Run(r.Context())
	respondMessage(w, http.StatusOK, report, "Сбор новостей выполнен")
}

type testEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// TestEmail handles POST /api/test/email.
func (h *SystemHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	if h.Email == nil {
		respondError(w, http.StatusBadRequest, "email settings not found", "Добавьте SMTP настройки в окружение")
		return
	}

	var req testEmailRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.To == "" {
		respondError(w, http.StatusBadRequest, "to is required", "")
		return
	}
	if req.Subject == "" {
		req.Subject = "Тестовое письмо от новостного агрегатора"
	}

	body := fmt.Sprintf(
		"<h2>Тестовое письмо от новостного агрегатора</h2><p>%s</p><p><em>Отправлено: %s</em></p>",
		req.Content, time.Now().Format("02.01.2006 15:04:05"),
	)
	if err := h.Email.Send(req.To, req.Subject, body); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error(), "Проверьте SMTP настройки")
		return
	}

	respondMessage(w, http.StatusOK, map[string]any{
		"to":      req.To,
		"sent_at": time.Now().UTC(),
	}, "Email уведомление отправлено успешно")
}

type testTelegramRequest struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}

// TestTelegram handles POST /api/test/telegram.
func (h *SystemHandler) TestTelegram(w http.ResponseWriter, r *http.Request) {
	if h.Telegram == nil {
		respondError(w, http.StatusBadRequest, "telegram bot token not found", "Добавьте TELEGRAM_BOT_TOKEN в окружение")
		return
	}

	var req testTelegramRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.ChatID == "" {
		respondError(w, http.StatusBadRequest, "chat_id is required", "")
		return
	}
	content := req.Content
	if content == "" {
		content = "📢 Тестовое уведомление от новостного агрегатора"
	}

	if err := h.Telegram.Send(req.ChatID, content); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error(), "Проверьте правильность токена бота и chatId")
		return
	}

	respondMessage(w, http.StatusOK, map[string]any{
		"chat_id": req.ChatID,
		"sent_at": time.Now().UTC(),
	}, "Telegram уведомление отправлено успешно")
}
