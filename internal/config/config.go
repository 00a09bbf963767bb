// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	DB       DBConfig
	Server   ServerConfig
	OpenAI   OpenAIConfig
	SMTP     SMTPConfig
	Telegram TelegramConfig
	S3       S3Config
	Ingest   IngestConfig
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	DBName  string
	SSLMode string
}

// DSN returns a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Pass +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.DBName + "?sslmode=" + c.SSLMode
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// OpenAIConfig holds parameters for the chat-completion service. BaseURL may
// point at api.openai.com or any compatible endpoint (e.g. api.deepseek.com).
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// SMTPConfig holds outbound email parameters.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// TelegramConfig holds the bot token for chat notifications.
type TelegramConfig struct {
	BotToken string
}

// S3Config holds S3-compatible object storage parameters for digest archives.
type S3Config struct {
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Region        string
	RetentionDays int
}

// IngestConfig holds feed ingestion tuning parameters.
type IngestConfig struct {
	Concurrency int
	FeedTimeout time.Duration
	FetchImages bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DB: DBConfig{
			Host:    envOr("DB_HOST", "localhost"),
			Port:    envOrInt("DB_PORT", 5432),
			User:    envOr("DB_USER", "prwee"),
			Pass:    envOr("DB_PASS", "prwee"),
			DBName:  envOr("DB_NAME", "prwee"),
			SSLMode: envOr("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", ":8080"),
			Host: envOr("SERVER_HOST", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:      envOr("OPENAI_API_KEY", ""),
			BaseURL:     envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       envOr("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:   envOrInt("OPENAI_MAX_TOKENS", 1000),
			Temperature: envOrFloat("OPENAI_TEMPERATURE", 0.7),
		},
		SMTP: SMTPConfig{
			Host: envOr("SMTP_HOST", "smtp.gmail.com"),
			Port: envOrInt("SMTP_PORT", 587),
			User: envOr("SMTP_USER", ""),
			Pass: envOr("SMTP_PASS", ""),
			From: envOr("SMTP_FROM", ""),
		},
		Telegram: TelegramConfig{
			BotToken: envOr("TELEGRAM_BOT_TOKEN", ""),
		},
		S3: S3Config{
			Endpoint:      envOr("S3_ENDPOINT", ""),
			Bucket:        envOr("S3_BUCKET", "prwee-digests"),
			AccessKey:     envOr("S3_ACCESS_KEY", ""),
			SecretKey:     envOr("S3_SECRET_KEY", ""),
			Region:        envOr("S3_REGION", "us-east-1"),
			RetentionDays: envOrInt("S3_RETENTION_DAYS", 90),
		},
		Ingest: IngestConfig{
			Concurrency: envOrInt("INGEST_CONCURRENCY", 5),
			FeedTimeout: envOrDuration("INGEST_FEED_TIMEOUT", 30*time.Second),
			FetchImages: envOr("INGEST_FETCH_IMAGES", "true") == "true",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
