package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/storage"
)

type ImageResult struct {
	Success          bool   `json:"success"`
	ImageURL         string `json:"image_url"`
	Prompt           string `json:"prompt"`
	RemainingCredits int    `json:"remaining_credits"`
}

type ImageGenerator struct {
	owned  Owned
	items  database.ItemRepository
	ledger *credits.Ledger
	images ai.ImageGenerator
	store  storage.ImageStore
}

func NewImageGenerator(repos *database.Repositories, ledger *credits.Ledger, images ai.ImageGenerator, store storage.ImageStore) *ImageGenerator {
	return &ImageGenerator{
		owned:  Owned{Campaigns: repos.Campaigns, Items: repos.Items},
		items:  repos.Items,
		ledger: ledger,
		images: images,
		store:  store,
	}
}

// Generate renders a new image for an item from the custom prompt or, when
// none is given, the prompt stored with the item. The credit is taken up
// front and returned when rendering or storing fails.
func (g *ImageGenerator) Generate(ctx context.Context, userID, itemID, customPrompt string) (*ImageResult, error) {
	item, campaign, err := g.owned.Item(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(customPrompt)
	if subject == "" {
		subject = strings.TrimSpace(item.ImagePrompt)
	}
	if subject == "" {
		return nil, apperr.Validation("No image prompt available for this content")
	}

	remaining, err := g.ledger.Spend(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := g.render(ctx, item.ID, subject, campaign)
	if err != nil {
		if _, refundErr := g.ledger.Refund(ctx, userID); refundErr != nil {
			err = errors.Join(err, refundErr)
		}
		return nil, err
	}

	slog.Info("Content image generated", "item", item.ID, "url", url, "remaining_credits", remaining)

	return &ImageResult{Success: true, ImageURL: url, Prompt: subject, RemainingCredits: remaining}, nil
}

func (g *ImageGenerator) render(ctx context.Context, itemID, subject string, campaign *database.Campaign) (string, error) {
	data, err := g.images.GenerateImage(ctx, ai.BuildImagePrompt(subject, campaignInfo(campaign)))
	if err != nil {
		return "", err
	}

	url, err := g.store.SaveImage(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	if err := g.items.UpdateImage(ctx, itemID, url); err != nil {
		return "", fmt.Errorf("failed to update content image: %w", err)
	}

	return url, nil
}
