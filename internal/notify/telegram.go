package notify

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers messages through a bot in HTML parse mode.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: init telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Send delivers one HTML-formatted message to the given chat. Link previews
// are disabled so digests with many links stay compact.
func (s *TelegramSender) Send(chatID, html string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("notify: parse telegram chat id %q: %w", chatID, err)
	}

	msg := tgbotapi.NewMessage(id, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("notify: send telegram message to %s: %w", chatID, err)
	}
	return nil
}
