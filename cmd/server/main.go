package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"feedback-bot/internal/bot"
	"feedback-bot/internal/config"
	"feedback-bot/internal/database"
	"feedback-bot/internal/handlers"
	"feedback-bot/internal/logger"
	customMiddleware "feedback-bot/internal/middleware"
	"feedback-bot/internal/notify"
	"feedback-bot/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Invalid configuration: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The process cannot serve without durable storage.
	if err := database.Connect(cfg.MongoURI, cfg.DBName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	log.Info("✅ Connected to MongoDB")

	feedbackRepo := repository.NewFeedbackRepo()

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := feedbackRepo.EnsureIndexes(indexCtx); err != nil {
		log.Warnf("⚠️  Failed to create feedback indexes: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("❌ Failed to create Telegram bot: %v", err)
	}
	log.Infof("✅ Telegram bot authorized as @%s", api.Self.UserName)

	notifier := buildNotifier(api, cfg)

	sessions := bot.NewSessionStore(cfg.SessionTTL)
	go sessions.RunSweeper(ctx, 10*time.Minute)

	limiter := bot.NewRateLimiter(feedbackRepo, cfg.RateLimitInterval, cfg.RateLimitFailOpen)

	feedbackBot := bot.New(api, feedbackRepo, sessions, limiter, notifier, bot.Config{
		AdminChatID: cfg.AdminChatID,
		PageSize:    cfg.PageSize,
	}, log)

	adminHandler := handlers.NewAdminHandler(feedbackRepo, cfg.JWTSecret, cfg.AdminAPISecret, cfg.PageSize, log)
	webhookHandler := handlers.NewWebhookHandler(feedbackBot, cfg.WebhookSecret, log)

	// Setup chi router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"feedback-bot"}`))
	})

	r.Post("/admin/login", adminHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(cfg.JWTSecret))
		r.Get("/admin/feedback", adminHandler.ListFeedback)
	})

	if cfg.WebhookBaseURL != "" {
		r.Post("/webhook/{secret}", webhookHandler.Receive)
		registerWebhook(api, cfg, log)
	} else {
		go runPolling(ctx, api, feedbackBot, log)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Infof("🚀 Feedback bot starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		log.Errorf("Error disconnecting from MongoDB: %v", err)
	}
}

func buildNotifier(api *tgbotapi.BotAPI, cfg *config.Config) notify.Notifier {
	targets := notify.Multi{notify.NewTelegramNotifier(api, cfg.AdminChatID)}
	if cfg.ResendAPIKey != "" && cfg.EmailFrom != "" && cfg.EmailTo != "" {
		targets = append(targets, notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo))
	}
	if len(targets) == 1 {
		return targets[0]
	}
	return targets
}

func registerWebhook(api *tgbotapi.BotAPI, cfg *config.Config, log *logrus.Logger) {
	wh, err := tgbotapi.NewWebhook(cfg.WebhookBaseURL + "/webhook/" + cfg.WebhookSecret)
	if err != nil {
		log.Fatalf("❌ Invalid webhook URL: %v", err)
	}
	if _, err := api.Request(wh); err != nil {
		log.Fatalf("❌ Failed to register webhook: %v", err)
	}
	log.Infof("✅ Webhook registered at %s/webhook/<secret>", cfg.WebhookBaseURL)
}

// runPolling consumes the long-poll update stream until ctx is cancelled.
// Updates are handled concurrently across users; per-user ordering is
// enforced by the session locks inside the bot.
func runPolling(ctx context.Context, api *tgbotapi.BotAPI, b *bot.Bot, log *logrus.Logger) {
	// A leftover webhook registration blocks getUpdates.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Warnf("⚠️  Failed to delete webhook: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	log.Info("✅ Long polling started")

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update := <-updates:
			go func(up tgbotapi.Update) {
				hctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				b.HandleUpdate(hctx, up)
			}(update)
		}
	}
}
