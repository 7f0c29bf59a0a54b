// Package notify implements ports.Notifier over Discord webhooks and the
// Telegram bot HTTP API, both over resty in the same style as the other
// outbound clients (internal/llm, internal/dexdata).
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
)

const (
	tradeCooldown  = 30 * time.Minute
	crisisCooldown = 5 * time.Minute
)

// sink is the single-message delivery capability a concrete notifier
// implements; Composite is what actually satisfies ports.Notifier.
type sink interface {
	send(ctx context.Context, message string)
}

// Composite fans a notification out to every configured sink, applying a
// per-key cooldown so a flapping condition doesn't spam the channel: trade
// keys cool down for 30 minutes, crisis keys for 5 (spec.md 5).
type Composite struct {
	sinks []sink

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// New returns a Composite delivering to every non-nil sink passed.
func New(sinks ...sink) *Composite {
	filtered := make([]sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &Composite{sinks: filtered, lastSent: make(map[string]time.Time)}
}

// Notify implements ports.Notifier. Failures in any one sink are logged and
// never block trading (spec.md 7).
func (c *Composite) Notify(ctx context.Context, key, message string) {
	if !c.ready(key) {
		return
	}
	for _, s := range c.sinks {
		s.send(ctx, message)
	}
}

func (c *Composite) ready(key string) bool {
	cooldown := tradeCooldown
	if isCrisisKey(key) {
		cooldown = crisisCooldown
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastSent[key]
	now := time.Now()
	if ok && now.Sub(last) < cooldown {
		return false
	}
	c.lastSent[key] = now
	return true
}

func isCrisisKey(key string) bool {
	return len(key) >= 6 && key[:6] == "crisis"
}

// DiscordNotifier posts to a Discord incoming webhook.
type DiscordNotifier struct {
	http       *resty.Client
	webhookURL string
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		http:       resty.New().SetTimeout(10 * time.Second),
		webhookURL: webhookURL,
	}
}

func (d *DiscordNotifier) send(ctx context.Context, message string) {
	_, err := d.http.R().SetContext(ctx).
		SetBody(map[string]string{"content": message}).
		Post(d.webhookURL)
	if err != nil {
		logger.Errorf("discord notify failed: %v", err)
	}
}

// TelegramNotifier posts to the Telegram bot sendMessage API.
type TelegramNotifier struct {
	http   *resty.Client
	token  string
	chatID string
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		http:   resty.New().SetBaseURL("https://api.telegram.org").SetTimeout(10 * time.Second),
		token:  botToken,
		chatID: chatID,
	}
}

func (t *TelegramNotifier) send(ctx context.Context, message string) {
	_, err := t.http.R().SetContext(ctx).
		SetBody(map[string]string{"chat_id": t.chatID, "text": message}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		logger.Errorf("telegram notify failed: %v", err)
	}
}
