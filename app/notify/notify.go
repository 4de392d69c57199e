package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
)

// Notifier delivers a plain-text message to a user's chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) error
}

type Telegram struct {
	sender Sender
}

func NewTelegram(token string) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{sender: botSender{b}}, nil
}

func NewTelegramWithSender(sender Sender) *Telegram {
	return &Telegram{sender: sender}
}

func (t *Telegram) Notify(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return nil
	}

	err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	slog.Debug("Telegram notification sent", "chat_id", chatID)
	return nil
}

type botSender struct {
	b *bot.Bot
}

func (s botSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) error {
	_, err := s.b.SendMessage(ctx, params)
	return err
}

type Nop struct{}

func (Nop) Notify(context.Context, int64, string) error { return nil }

// UpdateSummary formats the message sent after a scheduled update.
func UpdateSummary(processed, failed, generated int, campaigns []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scheduled update finished: %d campaign(s) processed, %d failed, %d new item(s).", processed, failed, generated)
	if len(campaigns) > 0 {
		fmt.Fprintf(&b, "\nCampaigns: %s", strings.Join(campaigns, ", "))
	}
	return b.String()
}
