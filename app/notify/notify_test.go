package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
)

type recordingSender struct {
	params []*bot.SendMessageParams
	err    error
}

func (s *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) error {
	s.params = append(s.params, params)
	return s.err
}

func TestTelegramNotify(t *testing.T) {
	sender := &recordingSender{}
	telegram := NewTelegramWithSender(sender)

	if err := telegram.Notify(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sender.params) != 1 {
		t.Fatalf("Expected 1 message, got: %d", len(sender.params))
	}
	if sender.params[0].ChatID != int64(42) {
		t.Errorf("Expected chat id 42, got: %v", sender.params[0].ChatID)
	}
	if sender.params[0].Text != "hello" {
		t.Errorf("Expected text 'hello', got: %s", sender.params[0].Text)
	}
}

func TestTelegramNotifySkipsMissingChat(t *testing.T) {
	sender := &recordingSender{}

	if err := NewTelegramWithSender(sender).Notify(context.Background(), 0, "hello"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(sender.params) != 0 {
		t.Errorf("Expected no messages, got: %d", len(sender.params))
	}
}

func TestTelegramNotifyError(t *testing.T) {
	sender := &recordingSender{err: errors.New("blocked")}

	err := NewTelegramWithSender(sender).Notify(context.Background(), 7, "hello")
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("Expected wrapped send error, got: %v", err)
	}
}

func TestUpdateSummary(t *testing.T) {
	got := UpdateSummary(2, 1, 5, []string{"Spring", "Summer"})
	want := "Scheduled update finished: 2 campaign(s) processed, 1 failed, 5 new item(s).\nCampaigns: Spring, Summer"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
