package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prwee/prwee/internal/models"
)

// UsersHandler groups user-related HTTP handlers.
type UsersHandler struct {
	Users *models.UserStore
}

type createUserRequest struct {
	Email                 string      `json:"email"`
	Password              string      `json:"password"`
	Name                  string      `json:"name"`
	EmailNotifications    *bool       `json:"email_notifications"`
	TelegramNotifications bool        `json:"telegram_notifications"`
	TelegramChatID        string      `json:"telegram_chat_id"`
	DigestFrequency       string      `json:"digest_frequency"`
	CategoryIDs           []uuid.UUID `json:"category_ids"`
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required", "")
		return
	}

	if existing, err := h.Users.GetByEmail(r.Context(), req.Email); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "user already exists", "Пользователь с таким email уже зарегистрирован")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create user", "")
		return
	}

	emailNotifications := true
	if req.EmailNotifications != nil {
		emailNotifications = *req.EmailNotifications
	}

	user := &models.User{
		Email:                 req.Email,
		PasswordHash:          string(hash),
		Name:                  req.Name,
		EmailNotifications:    emailNotifications,
		TelegramNotifications: req.TelegramNotifications,
		TelegramChatID:        req.TelegramChatID,
		DigestFrequency:       req.DigestFrequency,
		CategoryIDs:           req.CategoryIDs,
		Active:                true,
	}

	if err := h.Users.Create(r.Context(), user); err != nil {
		slog.Error("create user", "email", req.Email, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create user", "")
		return
	}
	respondData(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id", "")
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found", "")
		return
	}
	respondData(w, http.StatusOK, user)
}
