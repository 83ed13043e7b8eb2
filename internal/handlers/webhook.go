package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"feedback-bot/internal/bot"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// WebhookHandler receives Telegram webhook callbacks and hands them to the
// bot. The path carries a secret so nobody else can feed us updates.
type WebhookHandler struct {
	bot    *bot.Bot
	secret string
	log    *logrus.Logger
}

func NewWebhookHandler(b *bot.Bot, secret string, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{bot: b, secret: secret, log: log}
}

// --- POST /webhook/{secret} ---

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != h.secret {
		// Wrong secret looks identical to a missing route.
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.log.Errorf("Error decoding webhook update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Acknowledge immediately; handling must not block the transport.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.bot.HandleUpdate(ctx, update)
	}()

	w.WriteHeader(http.StatusOK)
}
