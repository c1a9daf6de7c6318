package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink delivers messages through the Telegram Bot API.
type TelegramSink struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSink(bot *tgbotapi.BotAPI) *TelegramSink {
	return &TelegramSink{bot: bot}
}

func (s *TelegramSink) Send(_ context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
