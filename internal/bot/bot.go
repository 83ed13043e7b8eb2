package bot

import (
	"context"
	"strings"
	"time"

	"feedback-bot/internal/models"
	"feedback-bot/internal/notify"
	"feedback-bot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// FeedbackStore is the slice of the record store the bot needs.
// *repository.FeedbackRepo satisfies it.
type FeedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	LastSubmittedAt(ctx context.Context, userID int64) (time.Time, bool, error)
	FindPage(ctx context.Context, filter repository.ListFilter, limit, offset int64) ([]models.Feedback, error)
	Count(ctx context.Context, filter repository.ListFilter) (int64, error)
}

// api is the slice of tgbotapi.BotAPI the handlers use, kept narrow so tests
// can fake the transport.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Config struct {
	AdminChatID int64
	PageSize    int64
}

// Bot holds the conversation state machine and the admin query engine.
type Bot struct {
	api      api
	store    FeedbackStore
	sessions *SessionStore
	limiter  *RateLimiter
	notifier notify.Notifier
	adminID  int64
	pageSize int64
	log      *logrus.Logger
}

func New(a api, store FeedbackStore, sessions *SessionStore, limiter *RateLimiter, notifier notify.Notifier, cfg Config, log *logrus.Logger) *Bot {
	return &Bot{
		api:      a,
		store:    store,
		sessions: sessions,
		limiter:  limiter,
		notifier: notifier,
		adminID:  cfg.AdminChatID,
		pageSize: cfg.PageSize,
		log:      log,
	}
}

// HandleUpdate routes one inbound Telegram update. Admin commands and
// pagination callbacks bypass the per-user session entirely.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.startFlow(ctx, msg)
	case "feedbacks":
		b.handleAdminCommand(ctx, msg)
	default:
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgStartHint))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answerCallback(cq.ID, "")
		return
	}
	switch {
	case strings.HasPrefix(cq.Data, classCallbackPrefix):
		b.handleClassification(ctx, cq)
	case strings.HasPrefix(cq.Data, adminCallbackPrefix):
		b.handleAdminCallback(ctx, cq)
	default:
		b.answerCallback(cq.ID, "")
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Errorf("Error sending message: %v", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Errorf("Error answering callback query: %v", err)
	}
}
