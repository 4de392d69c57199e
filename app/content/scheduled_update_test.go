package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

type fakeCampaignGenerator struct {
	failing map[string]bool
	calls   []string
}

func (f *fakeCampaignGenerator) Generate(_ context.Context, _, campaignID string) (*GenerateResult, error) {
	f.calls = append(f.calls, campaignID)
	if f.failing[campaignID] {
		return nil, apperr.New(apperr.KindUpstream, "LLM request failed")
	}
	return &GenerateResult{Success: true, CampaignID: campaignID, Generated: 3}, nil
}

type recordingNotifier struct {
	chatID int64
	texts  []string
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.chatID = chatID
	n.texts = append(n.texts, text)
	return n.err
}

func scheduledFixture(t *testing.T, hours ...int) (*fixture, []*database.Campaign) {
	t.Helper()
	f := newFixture(t, 5)
	ctx := context.Background()

	profile, _ := f.store.GetProfile(ctx, ownerID)
	profile.TelegramChatID = 99
	_ = f.store.CreateProfile(ctx, profile)

	var campaigns []*database.Campaign
	for _, hour := range hours {
		c := &database.Campaign{UserID: ownerID, Name: "Scheduled", RssCategories: []string{"tech"}, UpdateSchedule: true, UpdateHour: hour}
		if err := f.store.CreateCampaign(ctx, c); err != nil {
			t.Fatalf("Failed to create campaign: %v", err)
		}
		campaigns = append(campaigns, c)
	}
	return f, campaigns
}

func atHour(hour int) func() time.Time {
	return func() time.Time { return time.Date(2025, 6, 10, hour, 30, 0, 0, time.UTC) }
}

func TestScheduledUpdateRunsDueCampaigns(t *testing.T) {
	f, campaigns := scheduledFixture(t, 9, 10)
	generator := &fakeCampaignGenerator{}
	notifier := &recordingNotifier{}

	updater := NewScheduledUpdater(f.repos, generator, notifier)
	updater.now = atHour(9)

	summary, err := updater.Run(context.Background(), ownerID, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if summary.Processed != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("Expected 1 processed and 1 skipped, got: %+v", summary)
	}
	if summary.Generated != 3 {
		t.Errorf("Expected 3 generated, got: %d", summary.Generated)
	}
	if len(generator.calls) != 1 || generator.calls[0] != campaigns[0].ID {
		t.Errorf("Expected only the 09:00 campaign to run, got: %v", generator.calls)
	}
	if notifier.chatID != 99 || len(notifier.texts) != 1 {
		t.Errorf("Expected one notification to chat 99, got: %d to %d", len(notifier.texts), notifier.chatID)
	}
}

func TestScheduledUpdateForce(t *testing.T) {
	f, _ := scheduledFixture(t, 1, 2, 3)
	generator := &fakeCampaignGenerator{}

	updater := NewScheduledUpdater(f.repos, generator, nil)
	updater.now = atHour(12)

	summary, err := updater.Run(context.Background(), ownerID, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Processed != 3 || len(generator.calls) != 3 {
		t.Errorf("Expected all 3 campaigns processed, got: %d", summary.Processed)
	}
}

func TestScheduledUpdateNothingDue(t *testing.T) {
	f, _ := scheduledFixture(t, 5)
	notifier := &recordingNotifier{}

	updater := NewScheduledUpdater(f.repos, &fakeCampaignGenerator{}, notifier)
	updater.now = atHour(6)

	summary, err := updater.Run(context.Background(), ownerID, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !summary.Success || summary.Skipped != 1 {
		t.Errorf("Expected a successful summary with 1 skipped, got: %+v", summary)
	}
	if len(notifier.texts) != 0 {
		t.Error("Expected no notification when nothing ran")
	}
}

func TestScheduledUpdatePartialAndTotalFailure(t *testing.T) {
	f, campaigns := scheduledFixture(t, 8, 8)
	generator := &fakeCampaignGenerator{failing: map[string]bool{campaigns[0].ID: true}}
	notifier := &recordingNotifier{err: errors.New("chat not found")}

	updater := NewScheduledUpdater(f.repos, generator, notifier)
	updater.now = atHour(8)

	summary, err := updater.Run(context.Background(), ownerID, false)
	if err != nil {
		t.Fatalf("Expected partial failure to succeed, got: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 1 {
		t.Errorf("Expected 1 processed and 1 failed, got: %+v", summary)
	}

	generator.failing[campaigns[1].ID] = true
	summary, err = updater.Run(context.Background(), ownerID, false)
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Errorf("Expected upstream error when every campaign fails, got: %v", err)
	}
	if summary == nil || summary.Failed != 2 || summary.Success {
		t.Errorf("Expected failed summary, got: %+v", summary)
	}
}

func TestScheduledUpdateRequiresUser(t *testing.T) {
	f, _ := scheduledFixture(t)

	_, err := NewScheduledUpdater(f.repos, &fakeCampaignGenerator{}, nil).Run(context.Background(), "", false)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}
