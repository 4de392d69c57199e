package content

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
	"github.com/lysyi3m/adcomb/app/scrape"
)

type NewsSource interface {
	LatestFor(ctx context.Context, campaign *database.Campaign) (*feed.Result, error)
}

type ImageResolver interface {
	Run(ctx context.Context, candidates []scrape.Candidate) []scrape.Candidate
}

type GenerateResult struct {
	Success          bool              `json:"success"`
	CampaignID       string            `json:"campaign_id"`
	Generated        int               `json:"generated"`
	Skipped          int               `json:"skipped_duplicates"`
	Items            []database.AiItem `json:"items"`
	FeedsTotal       int               `json:"feeds_total"`
	FeedsSucceeded   int               `json:"feeds_succeeded"`
	FeedsFailed      int               `json:"feeds_failed"`
	NewsItems        int               `json:"news_items"`
	TrendSummary     string            `json:"trend_summary,omitempty"`
	CampaignStrategy string            `json:"campaign_strategy,omitempty"`
}

type Generator struct {
	owned  Owned
	items  database.ItemRepository
	ledger *credits.Ledger
	news   NewsSource
	images ImageResolver
	llm    ai.Completer
	dedup  bool
}

func NewGenerator(repos *database.Repositories, ledger *credits.Ledger, news NewsSource, images ImageResolver, llm ai.Completer, dedup bool) *Generator {
	return &Generator{
		owned:  Owned{Campaigns: repos.Campaigns, Items: repos.Items},
		items:  repos.Items,
		ledger: ledger,
		news:   news,
		images: images,
		llm:    llm,
		dedup:  dedup,
	}
}

// Generate runs the full pipeline for one campaign: recent news, image
// extraction, one LLM call and a bulk insert of the resulting items.
func (g *Generator) Generate(ctx context.Context, userID, campaignID string) (*GenerateResult, error) {
	campaign, err := g.owned.Campaign(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	if len(campaign.RssCategories) == 0 {
		return nil, apperr.Validation("Campaign has no RSS categories configured")
	}

	if _, err := g.ledger.Require(ctx, userID); err != nil {
		return nil, err
	}

	news, err := g.news.LatestFor(ctx, campaign)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		CampaignID:     campaign.ID,
		Items:          []database.AiItem{},
		FeedsTotal:     news.FeedsTotal,
		FeedsSucceeded: news.FeedsSucceeded,
		FeedsFailed:    news.FeedsFailed,
		NewsItems:      len(news.Items),
	}

	if len(news.Items) == 0 {
		return nil, apperr.Validation("No recent RSS content available for this campaign").WithDetails(news.Message)
	}

	candidates := g.images.Run(ctx, lo.Map(news.Items, func(item feed.Item, _ int) scrape.Candidate {
		return scrape.Candidate{Headline: item.Title, Link: item.Link, ImageURL: item.ImageURL}
	}))
	imageByLink := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if c.ExtractedImageURL != "" {
			imageByLink[c.Link] = c.ExtractedImageURL
		}
	}

	prompt := ai.BuildContentPrompt(toNewsItems(news.Items, imageByLink), campaign.RssCategories, campaignInfo(campaign))

	raw, err := g.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	response, err := ai.DecodeWithPolicy(raw, ai.PolicyFail, ai.ValidateContent, nil)
	if err != nil {
		return nil, err
	}

	result.TrendSummary = response.TrendSummary
	result.CampaignStrategy = response.CampaignStrategy

	rows := lo.Map(response.Results, func(r ai.ContentResult, _ int) database.AiItem {
		return toAiItem(campaign.ID, r, imageByLink)
	})

	rows, result.Skipped, err = g.dropDuplicates(ctx, campaign.ID, rows)
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		saved, err := g.items.InsertItems(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to save generated content: %w", err)
		}
		result.Items = saved
	}

	result.Generated = len(result.Items)
	result.Success = true

	slog.Info("Content generated",
		"campaign", campaign.ID,
		"news", len(news.Items),
		"generated", result.Generated,
		"skipped", result.Skipped)

	return result, nil
}

// dropDuplicates removes rows whose source link was already generated for the
// campaign, or repeats within the batch. Rows without a link are always kept.
func (g *Generator) dropDuplicates(ctx context.Context, campaignID string, rows []database.AiItem) ([]database.AiItem, int, error) {
	if !g.dedup {
		return rows, 0, nil
	}

	links := lo.Uniq(lo.Compact(lo.Map(rows, func(r database.AiItem, _ int) string { return r.SourceLink })))

	existing, err := g.items.ExistingLinks(ctx, campaignID, links)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check existing content: %w", err)
	}

	seen := lo.SliceToMap(existing, func(link string) (string, bool) { return link, true })

	kept := make([]database.AiItem, 0, len(rows))
	for _, r := range rows {
		if r.SourceLink != "" {
			if seen[r.SourceLink] {
				continue
			}
			seen[r.SourceLink] = true
		}
		kept = append(kept, r)
	}

	return kept, len(rows) - len(kept), nil
}

func toNewsItems(items []feed.Item, imageByLink map[string]string) []ai.NewsItem {
	return lo.Map(items, func(item feed.Item, _ int) ai.NewsItem {
		image := imageByLink[item.Link]
		if image == "" {
			image = item.ImageURL
		}
		return ai.NewsItem{
			Headline:    item.Title,
			Link:        item.Link,
			Description: item.Description,
			Source:      item.SourceName,
			PublishedAt: item.PublishedAt.UTC().Format(time.RFC3339),
			ImageURL:    image,
		}
	})
}

func toAiItem(campaignID string, r ai.ContentResult, imageByLink map[string]string) database.AiItem {
	link := strings.TrimSpace(r.Link)
	image := imageByLink[link]

	return database.AiItem{
		CampaignID:     campaignID,
		Headline:       strings.TrimSpace(r.Headline),
		SourceLink:     link,
		Clickbait:      r.Clickbait,
		RelevanceScore: ClampScore(r.RelevanceScore),
		Trend:          r.Trend,
		Description:    r.Description,
		Tooltip:        r.Tooltip,
		AdPlacement: database.AdPlacement{
			Headline:   r.AdPlacement.Headline,
			Body:       r.AdPlacement.Body,
			CTA:        r.AdPlacement.CTA,
			HeadlineEn: r.AdPlacement.HeadlineEn,
			BodyEn:     r.AdPlacement.BodyEn,
		},
		Tags:             lo.Compact(r.Tags),
		Keywords:         lo.Compact(r.Keywords),
		ImageURL:         image,
		OriginalImageURL: image,
		ImagePrompt:      r.ImagePrompt,
	}
}

func ClampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(min(max(score, 0), 100)))
}
