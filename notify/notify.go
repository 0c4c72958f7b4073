// Package notify fans deal alerts out to the enabled notification channels
// with per-channel error isolation.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dkarlsen/yochiwatch/config"
)

// ErrNotConfigured marks a channel that is enabled but missing a required
// setting or credential. The dispatcher reports it as skipped, not failed.
var ErrNotConfigured = errors.New("channel not configured")

// Sender is the uniform transport capability of one notification channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, title, body string) error
}

// Alert carries everything the renderers need to format a deal message.
type Alert struct {
	Flavor       string
	Price        float64
	Percent      string
	Alternatives []string
	ShopURL      string
}

// RenderFunc formats an alert for one channel. The title doubles as the email
// subject; channels without a title concept receive an empty string.
type RenderFunc func(Alert) (title, body string)

// Outcome statuses, also used as metric labels.
const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Outcome reports what happened on one channel during a dispatch.
type Outcome struct {
	Channel string
	Status  string
	Err     error
}

type channel struct {
	sender Sender
	render RenderFunc
}

// Dispatcher holds the registered channels and invokes them in sequence.
// One channel failing never prevents the remaining channels from running.
type Dispatcher struct {
	channels []channel
}

// FromConfig registers a channel for every enabled toggle. Disabled channels
// are never registered, so a dispatch cannot touch them.
func FromConfig(cfg *config.Config) *Dispatcher {
	d := &Dispatcher{}
	if cfg.Notifications.MacOSEnabled {
		d.Register(NewDesktop(), DesktopMessage)
	}
	if cfg.Notifications.EmailEnabled {
		d.Register(NewEmail(cfg.Email), EmailMessage)
	}
	if cfg.Notifications.TelegramEnabled {
		d.Register(NewTelegram(cfg.Telegram), TelegramMessage)
	}
	return d
}

// Register adds a channel to the dispatch sequence.
func (d *Dispatcher) Register(s Sender, render RenderFunc) {
	d.channels = append(d.channels, channel{sender: s, render: render})
}

// Channels reports how many channels are registered.
func (d *Dispatcher) Channels() int {
	return len(d.channels)
}

// Dispatch renders and sends the alert on every registered channel.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) []Outcome {
	outcomes := make([]Outcome, 0, len(d.channels))
	for _, ch := range d.channels {
		title, body := ch.render(alert)
		outcomes = append(outcomes, d.send(ctx, ch.sender, title, body))
	}
	return outcomes
}

// Test pushes a canned message through every registered channel so the
// operator can verify delivery end to end.
func (d *Dispatcher) Test(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(d.channels))
	for _, ch := range d.channels {
		title, body := testMessage(ch.sender.Name())
		outcomes = append(outcomes, d.send(ctx, ch.sender, title, body))
	}
	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, s Sender, title, body string) Outcome {
	err := s.Send(ctx, title, body)
	switch {
	case errors.Is(err, ErrNotConfigured):
		slog.Warn("notification channel skipped",
			slog.String("channel", s.Name()),
			slog.Any("error", err),
		)
		return Outcome{Channel: s.Name(), Status: StatusSkipped, Err: err}
	case err != nil:
		slog.Error("notification failed",
			slog.String("channel", s.Name()),
			slog.Any("error", err),
		)
		return Outcome{Channel: s.Name(), Status: StatusFailed, Err: err}
	default:
		slog.Info("notification sent", slog.String("channel", s.Name()))
		return Outcome{Channel: s.Name(), Status: StatusSent}
	}
}

func testMessage(channelName string) (title, body string) {
	switch channelName {
	case "email":
		return "Test Email", "This is a test email from Price Monitor"
	case "telegram":
		return "", "🤖 <b>Test Message</b>\n\nThis is a test message from Yochi Price Monitor!"
	default:
		return "Test Notification", "This is a test message"
	}
}
