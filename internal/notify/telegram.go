package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes a copy of each new feedback entry to the
// operator's chat.
type TelegramNotifier struct {
	api    sender
	chatID int64
}

func NewTelegramNotifier(api sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (n *TelegramNotifier) Publish(ctx context.Context, message string) error {
	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, message)); err != nil {
		return fmt.Errorf("failed to send operator message: %w", err)
	}
	return nil
}
