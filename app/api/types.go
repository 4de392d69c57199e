package api

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
)

// NewsAggregator previews the feeds and news a campaign would use.
type NewsAggregator interface {
	FilteredFeedsFor(ctx context.Context, campaign *database.Campaign) ([]database.RssFeed, error)
	LatestFor(ctx context.Context, campaign *database.Campaign) (*feed.Result, error)
}

var _ NewsAggregator = (*feed.Aggregator)(nil)

type Services struct {
	Repos        *database.Repositories
	Ledger       *credits.Ledger
	Aggregator   NewsAggregator
	Generator    *content.Generator
	Variants     *content.VariantGenerator
	LandingPages *content.LandingPageGenerator
	Images       *content.ImageGenerator
	Suggester    *content.Suggester
	Updater      *content.ScheduledUpdater
}

type Handler struct {
	Services
	owned     content.Owned
	baseURL   string
	version   string
	startedAt time.Time
}

type CampaignRequest struct {
	Name               string   `json:"name"`
	URL                string   `json:"url"`
	Tags               []string `json:"tags"`
	Description        string   `json:"description"`
	ProductDescription string   `json:"product_description"`
	TargetAudience     string   `json:"target_audience"`
	RssCategories      []string `json:"rss_categories"`
	RssCountries       []string `json:"rss_countries"`
	UpdateSchedule     bool     `json:"update_schedule"`
	UpdateHour         int      `json:"update_hour"`
}

func (r CampaignRequest) apply(c *database.Campaign) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if r.URL != "" && !isHTTPURL(r.URL) {
		return apperr.Validation("url must be an absolute http(s) URL")
	}
	if r.UpdateHour < 0 || r.UpdateHour > 23 {
		return apperr.Validation("update_hour must be between 0 and 23")
	}

	c.Name = name
	c.URL = strings.TrimSpace(r.URL)
	c.Tags = nonNil(r.Tags)
	c.Description = r.Description
	c.ProductDescription = r.ProductDescription
	c.TargetAudience = r.TargetAudience
	c.RssCategories = feed.NormalizeCategories(r.RssCategories)
	c.RssCountries = feed.NormalizeCategories(r.RssCountries)
	c.UpdateSchedule = r.UpdateSchedule
	c.UpdateHour = r.UpdateHour
	return nil
}

type FeedRequest struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Categories []string `json:"categories"`
	Country    string   `json:"country"`
	Active     *bool    `json:"active"`
}

func (r FeedRequest) apply(f *database.RssFeed) error {
	if err := feed.ValidateSource(r.Name, r.URL, r.Categories); err != nil {
		return err
	}

	f.Name = strings.TrimSpace(r.Name)
	f.URL = strings.TrimSpace(r.URL)
	f.Categories = feed.NormalizeCategories(r.Categories)
	f.Country = strings.ToLower(strings.TrimSpace(r.Country))
	f.Active = r.Active == nil || *r.Active
	return nil
}

type GenerateContentRequest struct {
	CampaignID string `json:"campaign_id"`
}

type SuggestionRequest struct {
	URL string `json:"url"`
}

type PublishRequest struct {
	Published *bool `json:"published"`
}

type VariantRequest struct {
	Count     int    `json:"count"`
	Tone      string `json:"tone"`
	VaryTone  bool   `json:"vary_tone"`
	VaryFocus bool   `json:"vary_focus"`
}

func (r VariantRequest) options() ai.VariantOptions {
	count := r.Count
	if count == 0 {
		count = 3
	}
	return ai.VariantOptions{Count: count, Tone: strings.TrimSpace(r.Tone), VaryTone: r.VaryTone, VaryFocus: r.VaryFocus}
}

type ImageRequest struct {
	Prompt string `json:"prompt"`
}

type ContentPage struct {
	Items    []database.AiItem `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
