package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"BillsMonitor/internal/config"
	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

// ErrNotConfigured is reported when the bot token or chat id is missing.
var ErrNotConfigured = errors.New("telegram notifier misconfigured")

const datePlaceholder = "—"

// Notifier sends bill notifications to a Telegram chat via bot API. Undelivered
// messages are written to the fallback writer so they are never lost silently.
type Notifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
	fallback io.Writer
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. A nil fallback means stdout.
func NewNotifier(cfg config.TelegramConfig, fallback io.Writer, log *slog.Logger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	if fallback == nil {
		fallback = os.Stdout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   apiURL,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   log,
	}
}

// Notify renders the message and posts it. It never fails loudly: the outcome is returned.
func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) domain.Delivery {
	text := FormatMessage(msg)

	if n.botToken == "" || n.chatID == "" {
		n.logger.Warn("telegram credentials are not set, message not sent")
		n.printFallback(text)
		return domain.Delivery{Err: ErrNotConfigured}
	}

	if err := n.send(ctx, text); err != nil {
		n.logger.Error("telegram delivery failed", "error", err)
		n.printFallback(text)
		return domain.Delivery{Err: err}
	}

	n.logger.Info("sent to telegram", "url", msg.URL)
	return domain.Delivery{Delivered: true}
}

// FormatMessage renders a notification in Telegram HTML mode.
func FormatMessage(msg domain.Notification) string {
	date := msg.Date
	if date == "" {
		date = datePlaceholder
	}

	return fmt.Sprintf("<b>%s</b>\nНомер: <b>%s</b>\nДата реєстрації: %s\n\n%s",
		html.EscapeString(msg.Title),
		html.EscapeString(msg.Number),
		html.EscapeString(date),
		html.EscapeString(msg.URL),
	)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", stripURL(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", stripURL(err))
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if body.Description != "" {
			return fmt.Errorf("telegram error %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !body.OK {
		return fmt.Errorf("telegram rejected message: %s", body.Description)
	}

	return nil
}

func (n *Notifier) printFallback(text string) {
	if _, err := fmt.Fprintln(n.fallback, text); err != nil {
		n.logger.Error("write fallback message", "error", err)
	}
}

// stripURL drops the request URL from transport errors; it embeds the bot token.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
