// Package notify sends due-review reminders. Telegram is the only channel
// for now; users opt in by linking a chat id to their profile.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/provalab/internal/logger"
)

// TelegramNotifier sends reminders through a Telegram bot.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *logger.Logger
}

// NewTelegramNotifier creates a notifier from a bot token.
func NewTelegramNotifier(token string, log *logger.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	return &TelegramNotifier{
		bot: bot,
		log: log.With("component", "notify"),
	}, nil
}

// SendReminder tells a user how many reviews are waiting.
func (n *TelegramNotifier) SendReminder(chatID int64, dueCount int) error {
	text := fmt.Sprintf("Você tem %d revisões pendentes. Bora manter a ofensiva? 🔥", dueCount)
	if dueCount == 1 {
		text = "Você tem 1 revisão pendente. Bora manter a ofensiva? 🔥"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %v", err)
	}
	return nil
}
