package bot

import (
	"context"
	"fmt"
	"time"

	"feedback-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const classCallbackPrefix = "class|"

const (
	msgPrompt         = "Опишите Вашу проблему или пожелание. Также просим Вас оставить номер, дату, время заказа и контактный номер телефона, через который мы сможем с Вами связаться."
	msgClassify       = "Оцените Ваш отзыв:"
	msgThanks         = "Благодарим за обратную связь. Ваш ответ был направлен менеджеру. Мы постараемся связаться с Вами в ближайшее время!"
	msgStartHint      = "Нажмите /start, чтобы оставить отзыв."
	msgSaveFailed     = "Не удалось сохранить отзыв. Пожалуйста, попробуйте позже."
	msgRateCheckError = "Не удалось проверить возможность отправки отзыва. Пожалуйста, попробуйте позже."
	msgNoActiveFlow   = "Нет отзыва, ожидающего оценки."
)

func classifyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Положительный", classCallbackPrefix+"positive"),
			tgbotapi.NewInlineKeyboardButtonData("Отрицательный", classCallbackPrefix+"negative"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Без оценки", classCallbackPrefix+"skip"),
		),
	)
}

// startFlow handles the /start trigger. A denied or failed rate-limit check
// leaves the session untouched, so the user is never stuck mid-flow.
func (b *Bot) startFlow(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.Acquire(msg.From.ID)
	defer sess.Unlock()

	allowed, wait, err := b.limiter.CanSubmit(ctx, msg.From.ID)
	if err != nil {
		b.log.Errorf("Error checking rate limit for user %d: %v", msg.From.ID, err)
		if !allowed {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, msgRateCheckError))
			return
		}
	}
	if !allowed {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, rateLimitedMessage(wait)))
		return
	}

	sess.Stage = StageAwaitingText
	sess.PendingText = ""
	sess.UpdatedAt = time.Now()
	b.send(tgbotapi.NewMessage(msg.Chat.ID, msgPrompt))
}

// handleText handles a plain text message according to the session stage.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.Acquire(msg.From.ID)
	defer sess.Unlock()

	switch sess.Stage {
	case StageIdle:
		// Not feedback text — tell the user how to start the flow.
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgStartHint))

	case StageAwaitingText, StageAwaitingClassification:
		// A second message while awaiting classification replaces the
		// pending text: the user rewrote their feedback.
		sess.Stage = StageAwaitingClassification
		sess.PendingText = msg.Text
		sess.UpdatedAt = time.Now()

		reply := tgbotapi.NewMessage(msg.Chat.ID, msgClassify)
		reply.ReplyMarkup = classifyKeyboard()
		b.send(reply)
	}
}

// handleClassification finishes the flow: persist the entry, notify the
// operator, confirm to the user. The confirmation is sent only after a
// successful insert; the notification is best-effort and never blocks it.
func (b *Bot) handleClassification(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	sess := b.sessions.Acquire(cq.From.ID)
	defer sess.Unlock()

	if sess.Stage != StageAwaitingClassification || sess.PendingText == "" {
		b.answerCallback(cq.ID, msgNoActiveFlow)
		return
	}

	feedbackType := classificationFromCallback(cq.Data)
	if !feedbackType.Valid() {
		b.answerCallback(cq.ID, "")
		return
	}

	feedback := &models.Feedback{
		FeedbackType: feedbackType,
		Text:         sess.PendingText,
		UserID:       cq.From.ID,
	}
	if err := b.store.Create(ctx, feedback); err != nil {
		b.log.Errorf("Error saving feedback for user %d: %v", cq.From.ID, err)
		b.answerCallback(cq.ID, "")
		// The session stays in awaiting_classification so the user can
		// press the button again once the store recovers.
		b.send(tgbotapi.NewMessage(cq.Message.Chat.ID, msgSaveFailed))
		return
	}

	go func(message string) {
		nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := b.notifier.Publish(nctx, message); err != nil {
			b.log.Errorf("Error notifying operator: %v", err)
		}
	}(operatorMessage(feedback))

	sess.Reset(time.Now())
	b.answerCallback(cq.ID, "")
	b.send(tgbotapi.NewMessage(cq.Message.Chat.ID, msgThanks))
}

func classificationFromCallback(data string) models.FeedbackType {
	switch data {
	case classCallbackPrefix + "positive":
		return models.FeedbackPositive
	case classCallbackPrefix + "negative":
		return models.FeedbackNegative
	case classCallbackPrefix + "skip":
		return models.FeedbackUnclassified
	}
	return ""
}

func operatorMessage(f *models.Feedback) string {
	return fmt.Sprintf("Получен %s отзыв\n\nОтзыв: %s\nПользователь: %d",
		typeAdjective(f.FeedbackType), f.Text, f.UserID)
}

func typeAdjective(t models.FeedbackType) string {
	switch t {
	case models.FeedbackPositive:
		return "положительный"
	case models.FeedbackNegative:
		return "отрицательный"
	}
	return "новый"
}

func rateLimitedMessage(wait time.Duration) string {
	hours := int(wait.Hours())
	if wait > time.Duration(hours)*time.Hour {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("Вы уже оставляли отзыв недавно. Пожалуйста, попробуйте снова через %d ч.", hours)
}
