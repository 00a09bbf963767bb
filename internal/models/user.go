package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Digest frequency preference values.
const (
	DigestDaily  = "daily"
	DigestWeekly = "weekly"
	DigestNever  = "never"
)

// User is a registered reader with notification preferences.
type User struct {
	ID                    uuid.UUID   `json:"id"`
	Email                 string      `json:"email"`
	PasswordHash          string      `json:"-"`
	Name                  string      `json:"name"`
	EmailNotifications    bool        `json:"email_notifications"`
	TelegramNotifications bool        `json:"telegram_notifications"`
	TelegramChatID        string      `json:"telegram_chat_id,omitempty"`
	DigestFrequency       string      `json:"digest_frequency"`
	CategoryIDs           []uuid.UUID `json:"category_ids,omitempty"`
	Active                bool        `json:"active"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

const userColumns = `id, email, password_hash, name, email_notifications,
	       telegram_notifications, telegram_chat_id, digest_frequency,
	       category_ids, active, created_at, updated_at`

// UserStore provides data access methods for users.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func scanUser(row scannable) (*User, error) {
	var u User
	var categoriesRaw []byte
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.EmailNotifications,
		&u.TelegramNotifications, &u.TelegramChatID, &u.DigestFrequency,
		&categoriesRaw, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("user scan: %w", err)
	}
	if len(categoriesRaw) > 0 {
		if err := json.Unmarshal(categoriesRaw, &u.CategoryIDs); err != nil {
			return nil, fmt.Errorf("user unmarshal category_ids: %w", err)
		}
	}
	return &u, nil
}

// Create inserts a new user. PasswordHash must already be hashed by the caller.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DigestFrequency == "" {
		user.DigestFrequency = DigestDaily
	}
	if user.CategoryIDs == nil {
		user.CategoryIDs = []uuid.UUID{}
	}

	categoriesJSON, err := json.Marshal(user.CategoryIDs)
	if err != nil {
		return fmt.Errorf("user create: marshal category_ids: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, name, email_notifications,
		                   telegram_notifications, telegram_chat_id,
		                   digest_frequency, category_ids, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.EmailNotifications, user.TelegramNotifications,
		user.TelegramChatID, user.DigestFrequency, categoriesJSON, user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

// GetByID returns a user by their UUID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, nil
}

// GetByEmail returns a user by their email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return u, nil
}

// ListDigestSubscribers returns active users whose digest frequency matches,
// for batch notification delivery.
func (s *UserStore) ListDigestSubscribers(ctx context.Context, frequency string) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE active = true AND digest_frequency = $1
		ORDER BY created_at ASC
	`, frequency)
	if err != nil {
		return nil, fmt.Errorf("user list digest subscribers: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user list digest subscribers: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
