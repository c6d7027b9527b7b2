// Package notify delivers one-shot job reports to a chat channel.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"yieldwatch/pkg/logging"
)

// Prometheus metrics for notifications.
var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yieldwatch_notifications_total",
	Help: "Total chat notifications by result",
}, []string{"result"})

// Notifier sends one outbound message.
type Notifier interface {
	Send(ctx context.Context, html string) error
}

// TelegramConfig holds bot configuration.
type TelegramConfig struct {
	// Token is the bot token.
	Token string

	// ChatID is the destination chat.
	ChatID string

	// BaseURL overrides the API host (tests).
	BaseURL string

	// Timeout bounds the send call.
	Timeout time.Duration
}

const defaultTelegramURL = "https://api.telegram.org"

// Telegram sends HTML-formatted messages through the bot API.
type Telegram struct {
	http   *resty.Client
	config TelegramConfig
	logger zerolog.Logger
}

// NewTelegram creates a telegram notifier.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)

	return &Telegram{
		http:   client,
		config: cfg,
		logger: logging.NewLogger("notify"),
	}, nil
}

// HTTPClient exposes the underlying client (for testing).
func (t *Telegram) HTTPClient() *resty.Client {
	return t.http
}

// Send delivers one HTML message to the configured chat.
func (t *Telegram) Send(ctx context.Context, html string) error {
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.config.ChatID,
			"text":       html,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.config.Token))
	if err != nil {
		notificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send telegram message: %w", err)
	}
	if resp.IsError() {
		notificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send telegram message: status %d: %s", resp.StatusCode(), resp.String())
	}

	notificationsTotal.WithLabelValues("ok").Inc()
	t.logger.Info().
		Int("bytes", len(html)).
		Msg("Notification sent")

	return nil
}
