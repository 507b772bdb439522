package notify

import (
	"context"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter delivers alerts to a fixed Telegram chat using the
// gopkg.in/telebot.v3 library. The monitor only sends; no poller is started.
type TelebotAdapter struct {
	bot    *telebot.Bot
	chatID int64
}

// NewTelebotAdapter wraps an already-constructed bot.
func NewTelebotAdapter(b *telebot.Bot, chatID int64) *TelebotAdapter {
	return &TelebotAdapter{bot: b, chatID: chatID}
}

// Send delivers one alert to the configured chat.
func (tba *TelebotAdapter) Send(_ context.Context, text string) error {
	recipient := &telebot.User{ID: tba.chatID}
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	return err
}
