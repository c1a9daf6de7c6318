package transport

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"raidbot/internal/bot"
)

// Telegram receives commands via long polling and replies in the same chat.
type Telegram struct {
	api     *tgbotapi.BotAPI
	handler *bot.Handler
	logger  *logrus.Logger
}

func NewTelegram(api *tgbotapi.BotAPI, handler *bot.Handler, logger *logrus.Logger) *Telegram {
	return &Telegram{api: api, handler: handler, logger: logger}
}

func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.api.GetUpdatesChan(u)
	t.logger.Infof("telegram transport started as @%s", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update channel closed")
			}
			if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
				continue
			}

			msg := bot.IncomingMessage{
				TelegramID:  update.Message.From.ID,
				DisplayName: displayName(update.Message.From),
				Text:        update.Message.Text,
			}
			reply := t.handler.HandleCommand(ctx, msg)

			out := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
			if _, err := t.api.Send(out); err != nil {
				t.logger.WithError(err).WithField("chat_id", update.Message.Chat.ID).Warn("send reply")
			}
		}
	}
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return from.UserName
	}
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}
