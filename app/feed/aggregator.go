package feed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

type CampaignLookup interface {
	GetCampaign(ctx context.Context, id string) (*database.Campaign, error)
}

type ActiveFeedLookup interface {
	ListActiveFeedsByCategories(ctx context.Context, categories []string) ([]database.RssFeed, error)
}

type SourceFetcher interface {
	Fetch(ctx context.Context, source Source) FetchResult
}

type Aggregator struct {
	campaigns CampaignLookup
	feeds     ActiveFeedLookup
	fetcher   SourceFetcher
	now       func() time.Time
}

func NewAggregator(campaigns CampaignLookup, feeds ActiveFeedLookup, fetcher SourceFetcher) *Aggregator {
	return &Aggregator{
		campaigns: campaigns,
		feeds:     feeds,
		fetcher:   fetcher,
		now:       time.Now,
	}
}

func (a *Aggregator) FilteredFeeds(ctx context.Context, campaignID string) ([]database.RssFeed, error) {
	campaign, err := a.lookupCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return a.FilteredFeedsFor(ctx, campaign)
}

// FilteredFeedsFor returns active feeds sharing at least one category with
// the campaign. When both the campaign and a feed carry country codes, the
// feed's country must be one of the campaign's.
func (a *Aggregator) FilteredFeedsFor(ctx context.Context, campaign *database.Campaign) ([]database.RssFeed, error) {
	categories := normalizeCodes(campaign.RssCategories)
	if len(categories) == 0 {
		return []database.RssFeed{}, nil
	}

	feeds, err := a.feeds.ListActiveFeedsByCategories(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list active feeds: %w", err)
	}

	countries := normalizeCodes(campaign.RssCountries)

	return lo.Filter(feeds, func(f database.RssFeed, _ int) bool {
		if !f.Active || !lo.Some(categories, normalizeCodes(f.Categories)) {
			return false
		}
		country := strings.ToLower(strings.TrimSpace(f.Country))
		return len(countries) == 0 || country == "" || lo.Contains(countries, country)
	}), nil
}

func (a *Aggregator) LatestContent(ctx context.Context, campaignID string) (*Result, error) {
	campaign, err := a.lookupCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return a.LatestFor(ctx, campaign)
}

// LatestFor fetches every matching feed concurrently, keeps the successful
// results and returns the newest MaxMergedItems items across all of them.
func (a *Aggregator) LatestFor(ctx context.Context, campaign *database.Campaign) (*Result, error) {
	feeds, err := a.FilteredFeedsFor(ctx, campaign)
	if err != nil {
		return nil, err
	}

	result := &Result{Items: []Item{}, FeedsTotal: len(feeds)}
	if len(feeds) == 0 {
		result.Message = "No active RSS feeds match the campaign categories"
		return result, nil
	}

	fetched := make([]FetchResult, len(feeds))

	var g errgroup.Group
	for i, f := range feeds {
		g.Go(func() error {
			fetched[i] = a.fetcher.Fetch(ctx, Source{
				ID:         f.ID,
				Name:       f.Name,
				URL:        f.URL,
				Categories: f.Categories,
			})
			return nil
		})
	}
	_ = g.Wait()

	now := a.now()
	var items []Item
	for _, r := range fetched {
		if !r.Success {
			result.FeedsFailed++
			continue
		}
		result.FeedsSucceeded++
		for _, item := range r.Items {
			if IsRecent(item.PublishedAt, now) {
				items = append(items, item)
			}
		}
	}

	result.Items = MergeItems(items)

	if len(result.Items) == 0 {
		result.Message = "No recent items found in the matching feeds"
	}

	slog.Info("RSS content aggregated",
		"campaign", campaign.ID,
		"feeds", result.FeedsTotal,
		"succeeded", result.FeedsSucceeded,
		"failed", result.FeedsFailed,
		"items", len(result.Items))

	return result, nil
}

// MergeItems sorts items newest first and caps them at MaxMergedItems.
// Items are not deduplicated.
func MergeItems(items []Item) []Item {
	merged := slices.Clone(items)
	slices.SortStableFunc(merged, func(a, b Item) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if len(merged) > MaxMergedItems {
		merged = merged[:MaxMergedItems]
	}
	if merged == nil {
		merged = []Item{}
	}
	return merged
}

func (a *Aggregator) lookupCampaign(ctx context.Context, campaignID string) (*database.Campaign, error) {
	campaign, err := a.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, apperr.NotFound("Campaign not found")
	}
	return campaign, nil
}

func normalizeCodes(codes []string) []string {
	return lo.Uniq(lo.FilterMap(codes, func(c string, _ int) (string, bool) {
		c = strings.ToLower(strings.TrimSpace(c))
		return c, c != ""
	}))
}
