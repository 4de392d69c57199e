// Package content runs the generation pipelines that turn campaign news into
// ad items, variants, landing pages and images.
package content

import (
	"context"
	"fmt"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

// Owned loads items and campaigns and enforces that the caller owns them.
type Owned struct {
	Campaigns database.CampaignRepository
	Items     database.ItemRepository
}

func (o Owned) Campaign(ctx context.Context, userID, campaignID string) (*database.Campaign, error) {
	campaign, err := o.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, apperr.NotFound("Campaign not found")
	}
	if campaign.UserID != userID {
		return nil, apperr.Forbidden("You do not have access to this campaign")
	}
	return campaign, nil
}

// Item returns the item together with its campaign.
func (o Owned) Item(ctx context.Context, userID, itemID string) (*database.AiItem, *database.Campaign, error) {
	item, err := o.Items.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load content: %w", err)
	}
	if item == nil {
		return nil, nil, apperr.NotFound("Content not found")
	}

	campaign, err := o.Campaigns.GetCampaign(ctx, item.CampaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, nil, apperr.NotFound("Campaign not found")
	}
	if campaign.UserID != userID {
		return nil, nil, apperr.Forbidden("You do not have access to this content")
	}

	return item, campaign, nil
}

func campaignInfo(c *database.Campaign) ai.CampaignInfo {
	return ai.CampaignInfo{
		Name:               c.Name,
		URL:                c.URL,
		Description:        c.Description,
		ProductDescription: c.ProductDescription,
		TargetAudience:     c.TargetAudience,
		Tags:               c.Tags,
		Countries:          c.RssCountries,
	}
}

func adCopy(p database.AdPlacement) ai.AdCopy {
	return ai.AdCopy{
		Headline:   p.Headline,
		Body:       p.Body,
		CTA:        p.CTA,
		HeadlineEn: p.HeadlineEn,
		BodyEn:     p.BodyEn,
	}
}
