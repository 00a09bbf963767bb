// Command api starts the prwee HTTP API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/config"
	"github.com/prwee/prwee/internal/db"
	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/feed"
	"github.com/prwee/prwee/internal/handlers"
	"github.com/prwee/prwee/internal/models"
	"github.com/prwee/prwee/internal/notify"
	"github.com/prwee/prwee/internal/scrape"
	"github.com/prwee/prwee/internal/storage"
)

func main() {
	// Structured logging.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Database connection.
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Data stores.
	articleStore := models.NewArticleStore(pool)
	categoryStore := models.NewCategoryStore(pool)
	userStore := models.NewUserStore(pool)

	// AI client, only when a key is configured.
	var aiClient *ai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = ai.NewClient(cfg.OpenAI)
	} else {
		slog.Warn("OPENAI_API_KEY not set, AI analysis disabled")
	}

	// Notification senders.
	var emailSender *notify.EmailSender
	if cfg.SMTP.User != "" {
		emailSender = notify.NewEmailSender(cfg.SMTP)
	}
	var telegramSender *notify.TelegramSender
	if cfg.Telegram.BotToken != "" {
		telegramSender, err = notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			slog.Warn("telegram sender not available", "err", err)
		}
	}

	// S3 digest archive.
	archiveClient, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		slog.Warn("digest archival not available", "err", err)
		archiveClient = nil
	}

	tables := feed.DefaultTables()

	// Ingestion runner, shared with the manual trigger endpoint.
	runner := &feed.Runner{
		Categories:  categoryStore,
		Persister:   feed.NewPersister(articleStore),
		Fetcher:     feed.NewFetcher(cfg.Ingest.FeedTimeout),
		Tables:      tables,
		Concurrency: cfg.Ingest.Concurrency,
	}
	if cfg.Ingest.FetchImages {
		runner.Images = scrape.NewImageScraper()
	}

	// Digest pipeline. The composer degrades to its statistical synopsis when
	// aiClient is nil.
	var analyzer digest.Analyzer
	if aiClient != nil {
		analyzer = aiClient
	}
	composer := digest.NewComposer(articleStore, analyzer)

	var notifier *notify.Notifier
	if emailSender != nil || telegramSender != nil {
		var email notify.EmailDelivery
		if emailSender != nil {
			email = emailSender
		}
		var telegram notify.ChatDelivery
		if telegramSender != nil {
			telegram = telegramSender
		}
		notifier = notify.NewNotifier(userStore, email, telegram)
	}

	// Handlers.
	articlesHandler := &handlers.ArticlesHandler{
		Articles:   articleStore,
		Categories: categoryStore,
		AI:         aiClient,
		Tables:     tables,
	}
	categoriesHandler := &handlers.CategoriesHandler{
		Categories: categoryStore,
	}
	digestHandler := &handlers.DigestHandler{
		Categories: categoryStore,
		Composer:   composer,
		Notifier:   notifier,
		Archive:    archiveClient,
	}
	usersHandler := &handlers.UsersHandler{
		Users: userStore,
	}
	systemHandler := &handlers.SystemHandler{
		Ingest:   runner,
		Email:    emailSender,
		Telegram: telegramSender,
	}

	// Router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", systemHandler.Health)

	// Articles.
	r.Get("/api/articles", articlesHandler.List)
	r.Post("/api/articles", articlesHandler.Create)
	r.Get("/api/articles/monitor", articlesHandler.ListMonitored)
	r.Post("/api/articles/monitor", articlesHandler.Monitor)
	r.Delete("/api/articles/monitor", articlesHandler.Unmonitor)
	r.Post("/api/articles/analyze", articlesHandler.Analyze)
	r.Get("/api/articles/{id}", articlesHandler.Get)

	// Categories.
	r.Get("/api/categories", categoriesHandler.List)
	r.Post("/api/categories", categoriesHandler.Create)
	r.Put("/api/categories/{id}", categoriesHandler.Update)

	// Digests.
	r.Get("/api/digest/{category}", digestHandler.Get)
	r.Post("/api/digest/{category}/send", digestHandler.Send)

	// Users.
	r.Post("/api/users", usersHandler.Create)
	r.Get("/api/users/{id}", usersHandler.Get)

	// Ingestion and notification tests.
	r.Post("/api/ingest", systemHandler.RunIngest)
	r.Post("/api/test/email", systemHandler.TestEmail)
	r.Post("/api/test/telegram", systemHandler.TestTelegram)

	// Start server.
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	slog.Info("server stopped")
}
