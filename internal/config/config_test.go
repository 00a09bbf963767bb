package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, 5, cfg.Ingest.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Ingest.FeedTimeout)
	assert.Equal(t, 90, cfg.S3.RetentionDays)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("OPENAI_BASE_URL", "https://api.deepseek.com")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("INGEST_FEED_TIMEOUT", "10s")
	t.Setenv("INGEST_FETCH_IMAGES", "false")

	cfg := Load()
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "https://api.deepseek.com", cfg.OpenAI.BaseURL)
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
	assert.Equal(t, 10*time.Second, cfg.Ingest.FeedTimeout)
	assert.False(t, cfg.Ingest.FetchImages)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("INGEST_FEED_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 30*time.Second, cfg.Ingest.FeedTimeout)
}

func TestDSN(t *testing.T) {
	dsn := DBConfig{
		Host: "localhost", Port: 5432, User: "u", Pass: "p",
		DBName: "prwee", SSLMode: "disable",
	}.DSN()
	assert.Equal(t, "postgres://u:p@localhost:5432/prwee?sslmode=disable", dsn)
}
