package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/notify"
)

const (
	StatusGenerated = "generated"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

type CampaignGenerator interface {
	Generate(ctx context.Context, userID, campaignID string) (*GenerateResult, error)
}

type CampaignUpdate struct {
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Generated  int    `json:"generated"`
	Error      string `json:"error,omitempty"`
}

type UpdateSummary struct {
	Success   bool             `json:"success"`
	UserID    string           `json:"user_id"`
	Hour      int              `json:"hour"`
	Forced    bool             `json:"forced"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Generated int              `json:"generated"`
	Results   []CampaignUpdate `json:"results"`
}

// ScheduledUpdater regenerates content for a user's scheduled campaigns. It
// is driven by an external cron; nothing here runs on a timer.
type ScheduledUpdater struct {
	campaigns database.CampaignRepository
	profiles  database.ProfileRepository
	generator CampaignGenerator
	notifier  notify.Notifier
	now       func() time.Time
}

func NewScheduledUpdater(repos *database.Repositories, generator CampaignGenerator, notifier notify.Notifier) *ScheduledUpdater {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &ScheduledUpdater{
		campaigns: repos.Campaigns,
		profiles:  repos.Profiles,
		generator: generator,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run processes every scheduled campaign whose update hour matches the
// current UTC hour, or all of them when force is set. Campaigns run one after
// another. When every attempted campaign fails the summary is returned
// together with an error.
func (u *ScheduledUpdater) Run(ctx context.Context, userID string, force bool) (*UpdateSummary, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	campaigns, err := u.campaigns.ListScheduledCampaigns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled campaigns: %w", err)
	}

	hour := u.now().UTC().Hour()
	summary := &UpdateSummary{UserID: userID, Hour: hour, Forced: force, Results: []CampaignUpdate{}}

	var updated []string
	var lastErr error
	for _, c := range campaigns {
		update := CampaignUpdate{CampaignID: c.ID, Name: c.Name}

		if !force && c.UpdateHour != hour {
			update.Status = StatusSkipped
			summary.Skipped++
			summary.Results = append(summary.Results, update)
			continue
		}

		result, err := u.generator.Generate(ctx, userID, c.ID)
		if err != nil {
			slog.Error("Scheduled update failed", "campaign", c.ID, "error", err)
			update.Status = StatusFailed
			update.Error = err.Error()
			lastErr = err
			summary.Failed++
		} else {
			update.Status = StatusGenerated
			update.Generated = result.Generated
			summary.Processed++
			summary.Generated += result.Generated
			updated = append(updated, c.Name)
		}
		summary.Results = append(summary.Results, update)
	}

	attempted := summary.Processed + summary.Failed
	summary.Success = attempted == 0 || summary.Processed > 0

	slog.Info("Scheduled update finished",
		"user", userID,
		"hour", hour,
		"forced", force,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"generated", summary.Generated)

	if attempted > 0 {
		u.notifyUser(ctx, userID, summary, updated)
	}

	if !summary.Success {
		return summary, apperr.Wrap(apperr.KindUpstream, "All scheduled campaign updates failed", lastErr)
	}

	return summary, nil
}

func (u *ScheduledUpdater) notifyUser(ctx context.Context, userID string, summary *UpdateSummary, campaigns []string) {
	profile, err := u.profiles.GetProfile(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load profile for notification", "user", userID, "error", err)
		return
	}
	if profile == nil || profile.TelegramChatID == 0 {
		return
	}

	text := notify.UpdateSummary(summary.Processed, summary.Failed, summary.Generated, campaigns)
	if err := u.notifier.Notify(ctx, profile.TelegramChatID, text); err != nil {
		slog.Warn("Failed to send update notification", "user", userID, "error", err)
	}
}
