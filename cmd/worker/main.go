// Command worker runs the prwee background pipeline: scheduled feed
// ingestion, AI summary backfill, digest delivery, and archive cleanup.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/config"
	"github.com/prwee/prwee/internal/db"
	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/feed"
	"github.com/prwee/prwee/internal/models"
	"github.com/prwee/prwee/internal/notify"
	"github.com/prwee/prwee/internal/scrape"
	"github.com/prwee/prwee/internal/storage"
)

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("worker: starting prwee worker")

	cfg := config.Load()

	// Root context, cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("worker: database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	articleStore := models.NewArticleStore(pool)
	categoryStore := models.NewCategoryStore(pool)
	userStore := models.NewUserStore(pool)

	var aiClient *ai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = ai.NewClient(cfg.OpenAI)
	} else {
		slog.Warn("worker: OPENAI_API_KEY not set, AI jobs disabled")
	}

	var emailSender *notify.EmailSender
	if cfg.SMTP.User != "" {
		emailSender = notify.NewEmailSender(cfg.SMTP)
	}
	var telegramSender *notify.TelegramSender
	if cfg.Telegram.BotToken != "" {
		telegramSender, err = notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			slog.Warn("worker: telegram sender not available", "err", err)
		}
	}

	archiveClient, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		slog.Error("worker: storage client creation failed", "err", err)
		os.Exit(1)
	}

	runner := &feed.Runner{
		Categories:  categoryStore,
		Persister:   feed.NewPersister(articleStore),
		Fetcher:     feed.NewFetcher(cfg.Ingest.FeedTimeout),
		Tables:      feed.DefaultTables(),
		Concurrency: cfg.Ingest.Concurrency,
	}
	if cfg.Ingest.FetchImages {
		runner.Images = scrape.NewImageScraper()
	}

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

	// Track in-flight jobs for graceful shutdown.
	var wg sync.WaitGroup

	c := cron.New()

	// Ingestion: hourly.
	_, err = c.AddFunc("0 * * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 45*time.Minute)
		defer jobCancel()

		slog.Info("cron: ingestion job triggered")
		runner.Run(jobCtx)
	})
	if err != nil {
		slog.Error("worker: add ingestion cron", "err", err)
		os.Exit(1)
	}

	// AI summary backfill: every 6 hours.
	if aiClient != nil {
		_, err = c.AddFunc("0 */6 * * *", func() {
			wg.Add(1)
			defer wg.Done()

			jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Minute)
			defer jobCancel()

			slog.Info("cron: summary backfill triggered")
			ai.RunSummaryBackfill(jobCtx, articleStore, aiClient, 50)
		})
		if err != nil {
			slog.Error("worker: add summary backfill cron", "err", err)
			os.Exit(1)
		}
	}

	// Daily digest delivery: 7am.
	if notifier != nil {
		_, err = c.AddFunc("0 7 * * *", func() {
			wg.Add(1)
			defer wg.Done()

			jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Minute)
			defer jobCancel()

			slog.Info("cron: daily digest dispatch triggered")
			notify.RunDigestDispatch(jobCtx, categoryStore, composer, notifier, archiveClient, models.DigestDaily, 1)
		})
		if err != nil {
			slog.Error("worker: add digest dispatch cron", "err", err)
			os.Exit(1)
		}

		// Weekly digest delivery: Mondays 7am, covering the past week.
		_, err = c.AddFunc("0 7 * * 1", func() {
			wg.Add(1)
			defer wg.Done()

			jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Minute)
			defer jobCancel()

			slog.Info("cron: weekly digest dispatch triggered")
			notify.RunDigestDispatch(jobCtx, categoryStore, composer, notifier, archiveClient, models.DigestWeekly, 7)
		})
		if err != nil {
			slog.Error("worker: add weekly digest cron", "err", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("worker: no notification channel configured, digest dispatch disabled")
	}

	// Archive cleanup: daily at 3am.
	_, err = c.AddFunc("0 3 * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Minute)
		defer jobCancel()

		slog.Info("cron: archive cleanup triggered")
		if _, err := archiveClient.PruneArchives(jobCtx); err != nil {
			slog.Error("cron: archive cleanup", "err", err)
		}
	})
	if err != nil {
		slog.Error("worker: add archive cleanup cron", "err", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("worker: cron scheduler started", "jobs", len(c.Entries()))

	// Run an initial ingestion on startup so the first articles don't wait an
	// hour.
	wg.Add(1)
	go func() {
		defer wg.Done()

		// Small delay to let everything settle.
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}

		jobCtx, jobCancel := context.WithTimeout(ctx, 45*time.Minute)
		defer jobCancel()

		slog.Info("worker: running initial ingestion on startup")
		runner.Run(jobCtx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	slog.Info("worker: stopping cron scheduler")
	cronCtx := c.Stop()

	// Signal in-flight jobs to stop.
	cancel()

	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight jobs complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight jobs")
	}

	pool.Close()
	slog.Info("worker: shutdown complete")
}
