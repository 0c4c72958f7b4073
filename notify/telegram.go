package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dkarlsen/yochiwatch/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends deal alerts through a bot to a single chat.
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegram builds the telegram channel with a 10 second HTTP timeout so a
// Telegram outage stays contained to this channel.
func NewTelegram(cfg config.Telegram) *Telegram {
	return &Telegram{
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel in logs and metrics.
func (*Telegram) Name() string {
	return "telegram"
}

// WithClient swaps the HTTP client. Used by tests to inject a mock transport.
func (t *Telegram) WithClient(client *http.Client) *Telegram {
	t.client = client
	return t
}

// Send delivers one HTML-formatted message. The bot is constructed lazily per
// call: the constructor's getMe round trip is the connectivity check, and
// building it here keeps startup independent of Telegram availability.
func (t *Telegram) Send(_ context.Context, _ string, body string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("%w: bot token or chat id not set", ErrNotConfigured)
	}
	chatID, err := strconv.ParseInt(t.chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: chat id %q is not numeric", ErrNotConfigured, t.chatID)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.token, tgbotapi.APIEndpoint, t.client)
	if err != nil {
		return fmt.Errorf("connect telegram bot: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, body)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
