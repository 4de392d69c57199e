package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

const maxSlugBase = 60

type ArticleTexter interface {
	Text(ctx context.Context, pageURL string) string
}

type LandingPageResult struct {
	Success      bool                  `json:"success"`
	LandingPage  *database.LandingPage `json:"landing_page"`
	SectionCount int                   `json:"section_count"`
}

type LandingPageGenerator struct {
	owned   Owned
	pages   database.LandingPageRepository
	article ArticleTexter
	llm     ai.Completer
}

func NewLandingPageGenerator(repos *database.Repositories, article ArticleTexter, llm ai.Completer) *LandingPageGenerator {
	return &LandingPageGenerator{
		owned:   Owned{Campaigns: repos.Campaigns, Items: repos.Items},
		pages:   repos.LandingPages,
		article: article,
		llm:     llm,
	}
}

// Generate creates the single landing page of an item, grounded on the text
// of the original article.
func (g *LandingPageGenerator) Generate(ctx context.Context, userID, itemID string) (*LandingPageResult, error) {
	item, campaign, err := g.owned.Item(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	existing, err := g.pages.GetLandingPageByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check landing page: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("A landing page already exists for this content").WithDetails("slug: " + existing.Slug)
	}

	articleText := g.article.Text(ctx, item.SourceLink)

	prompt := ai.BuildLandingPagePrompt(ai.LandingPageSource{
		Headline:    item.Headline,
		Link:        item.SourceLink,
		Clickbait:   item.Clickbait,
		Description: item.Description,
		AdPlacement: adCopy(item.AdPlacement),
	}, articleText, campaignInfo(campaign))

	raw, err := g.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	response, err := ai.DecodeWithPolicy(raw, ai.PolicyFail, ai.ValidateLandingPage, nil)
	if err != nil {
		return nil, err
	}

	page := &database.LandingPage{
		ItemID: item.ID,
		Title:  strings.TrimSpace(response.Title),
		Slug:   Slug(response.Title),
		Active: true,
		Sections: lo.Map(response.Sections, func(s ai.Section, _ int) database.Section {
			return database.Section{
				Subtitle:    strings.TrimSpace(s.Subtitle),
				Paragraphs:  lo.Compact(s.Paragraphs),
				ImageURL:    s.ImageURL,
				ImagePrompt: s.ImagePrompt,
				CTA:         s.CTA,
			}
		}),
	}

	if err := g.pages.CreateLandingPage(ctx, page); err != nil {
		return nil, err
	}

	slog.Info("Landing page created", "item", item.ID, "slug", page.Slug, "sections", len(page.Sections))

	return &LandingPageResult{Success: true, LandingPage: page, SectionCount: len(page.Sections)}, nil
}

// Slug turns a title into a URL-safe slug with a short random suffix.
func Slug(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	base := strings.Trim(b.String(), "-")
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "page"
	}

	return base + "-" + uuid.NewString()[:8]
}

func (g *LandingPageGenerator) Get(ctx context.Context, userID, itemID string) (*database.LandingPage, error) {
	if _, _, err := g.owned.Item(ctx, userID, itemID); err != nil {
		return nil, err
	}

	page, err := g.pages.GetLandingPageByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load landing page: %w", err)
	}
	if page == nil {
		return nil, apperr.NotFound("Landing page not found")
	}
	return page, nil
}

// Delete removes an item's landing page and leaves the item itself in place.
func (g *LandingPageGenerator) Delete(ctx context.Context, userID, itemID string) error {
	page, err := g.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if _, err := g.pages.DeleteLandingPage(ctx, page.ID); err != nil {
		return fmt.Errorf("failed to delete landing page: %w", err)
	}
	return nil
}

type PublicLandingPage struct {
	*database.LandingPage
	Item     *database.AiItem   `json:"item"`
	Campaign *database.Campaign `json:"campaign"`
}

// View returns an active landing page by slug with its item and campaign and
// counts the view.
func (g *LandingPageGenerator) View(ctx context.Context, slug string) (*PublicLandingPage, error) {
	page, err := g.pages.GetLandingPageBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load landing page: %w", err)
	}
	if page == nil || !page.Active {
		return nil, apperr.NotFound("Landing page not found")
	}

	item, err := g.owned.Items.GetItem(ctx, page.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if item == nil {
		return nil, apperr.NotFound("Landing page not found")
	}

	campaign, err := g.owned.Campaigns.GetCampaign(ctx, item.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	views, err := g.pages.IncrementViews(ctx, page.ID)
	if err != nil {
		slog.Warn("Failed to count landing page view", "slug", slug, "error", err)
	} else {
		page.ViewCount = views
	}

	return &PublicLandingPage{LandingPage: page, Item: item, Campaign: campaign}, nil
}
