package ai

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	MinVariants = 1
	MaxVariants = 10
)

type VariantOptions struct {
	Count     int
	Tone      string
	VaryTone  bool
	VaryFocus bool
}

type VariantSource struct {
	Headline    string
	Description string
	AdPlacement AdCopy
}

type LandingPageSource struct {
	Headline    string
	Link        string
	Clickbait   string
	Description string
	AdPlacement AdCopy
}

// BuildContentPrompt asks for ad opportunities matching the campaign in the
// given news items.
func BuildContentPrompt(news []NewsItem, categories []string, campaign CampaignInfo) string {
	language := LanguageFor(campaign.Countries)

	var b strings.Builder

	b.WriteString("Analyze the following news items and find advertising opportunities for the campaign below.\n\n")
	writeCampaign(&b, campaign)
	fmt.Fprintf(&b, "Monitored categories: %s\n\n", joinOrNone(categories))

	b.WriteString("News items:\n")
	for i, item := range news {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Headline)
		fmt.Fprintf(&b, "   Link: %s\n", item.Link)
		if item.Source != "" {
			fmt.Fprintf(&b, "   Source: %s\n", item.Source)
		}
		if item.PublishedAt != "" {
			fmt.Fprintf(&b, "   Published: %s\n", item.PublishedAt)
		}
		if item.Description != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", item.Description)
		}
	}

	b.WriteString("\nSelect only the items that are genuinely relevant to the campaign. For each one return an object with:\n")
	b.WriteString(`- "headline": the original news headline
- "link": the original news link, copied exactly
- "clickbait": a short attention-grabbing hook tying the news to the product
- "relevance_score": integer from 0 to 100
- "trend": a short label for the trend behind the news
- "description": why this news is an opportunity for the campaign
- "tooltip": one sentence explaining the opportunity to a marketer
- "ad_placement": {"headline", "body", "cta"}
- "tags": array of short tags
- "keywords": array of search keywords
- "image_prompt": a description of an ad image without any text in it
`)
	writeLanguageRule(&b, language, `"ad_placement"`)

	b.WriteString(`
Respond with JSON: {"results": [...], "trend_summary": "...", "campaign_strategy": "..."}.
Return an empty "results" array when nothing is relevant.`)

	return b.String()
}

func BuildVariantPrompt(source VariantSource, campaign CampaignInfo, opts VariantOptions) string {
	language := LanguageFor(campaign.Countries)
	count := min(max(opts.Count, MinVariants), MaxVariants)

	var b strings.Builder

	fmt.Fprintf(&b, "Write %d alternative ad variants for the opportunity below.\n\n", count)
	writeCampaign(&b, campaign)

	fmt.Fprintf(&b, "News headline: %s\n", source.Headline)
	if source.Description != "" {
		fmt.Fprintf(&b, "Opportunity: %s\n", source.Description)
	}
	fmt.Fprintf(&b, "Current ad: %s | %s | %s\n\n", source.AdPlacement.Headline, source.AdPlacement.Body, source.AdPlacement.CTA)

	if opts.Tone != "" {
		fmt.Fprintf(&b, "Use a %s tone.\n", opts.Tone)
	}
	if opts.VaryTone {
		b.WriteString("Give each variant a different tone (for example urgent, playful, professional, emotional).\n")
	}
	if opts.VaryFocus {
		b.WriteString("Give each variant a different focus (for example price, quality, novelty, social proof).\n")
	}

	b.WriteString(`
Each variant is an object with "headline", "body", "cta", "tone", "focus" and "image_prompt".
`)
	writeLanguageRule(&b, language, "each variant")
	b.WriteString(`
Respond with JSON: {"variants": [...]}.`)

	return b.String()
}

func BuildLandingPagePrompt(source LandingPageSource, articleText string, campaign CampaignInfo) string {
	language := LanguageFor(campaign.Countries)

	var b strings.Builder

	b.WriteString("Create a landing page that connects the news story below to the campaign's product.\n\n")
	writeCampaign(&b, campaign)

	fmt.Fprintf(&b, "News headline: %s\n", source.Headline)
	fmt.Fprintf(&b, "News link: %s\n", source.Link)
	if source.Clickbait != "" {
		fmt.Fprintf(&b, "Hook: %s\n", source.Clickbait)
	}
	if source.Description != "" {
		fmt.Fprintf(&b, "Opportunity: %s\n", source.Description)
	}
	fmt.Fprintf(&b, "Ad: %s | %s | %s\n\n", source.AdPlacement.Headline, source.AdPlacement.Body, source.AdPlacement.CTA)

	b.WriteString("Article text:\n")
	b.WriteString(articleText)

	fmt.Fprintf(&b, `

Write the page in %s. Use 3 to 5 sections. Each section is an object with
"subtitle", "paragraphs" (array of strings), "image_prompt" and an optional "cta".
Respond with JSON: {"title": "...", "sections": [...]}.`, language)

	return b.String()
}

func BuildSuggestionPrompt(pageURL, pageText string, categories []string) string {
	var b strings.Builder

	b.WriteString("Analyze the product page below and suggest how to set up a news-driven ad campaign for it.\n\n")
	fmt.Fprintf(&b, "Page URL: %s\n", pageURL)
	b.WriteString("Page text:\n")
	b.WriteString(pageText)

	fmt.Fprintf(&b, `

Available RSS categories: %s

Respond with JSON:
{"suggested_tags": [...], "description": "...", "product_description": "...",
 "target_audience": "...", "rss_categories": [...]}
Only use RSS categories from the available list.`, joinOrNone(categories))

	return b.String()
}

// BuildImagePrompt wraps a subject description with style constraints for ad
// imagery.
func BuildImagePrompt(subject string, campaign CampaignInfo) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(subject))
	if campaign.ProductDescription != "" {
		fmt.Fprintf(&b, "\nThe image advertises: %s.", campaign.ProductDescription)
	}
	b.WriteString("\nPhotorealistic advertising image, clean composition, no text, no letters, no logos, no watermarks.")

	return b.String()
}

func writeCampaign(b *strings.Builder, campaign CampaignInfo) {
	b.WriteString("Campaign:\n")
	fmt.Fprintf(b, "- Name: %s\n", campaign.Name)
	if campaign.URL != "" {
		fmt.Fprintf(b, "- URL: %s\n", campaign.URL)
	}
	if campaign.Description != "" {
		fmt.Fprintf(b, "- Description: %s\n", campaign.Description)
	}
	if campaign.ProductDescription != "" {
		fmt.Fprintf(b, "- Product: %s\n", campaign.ProductDescription)
	}
	if campaign.TargetAudience != "" {
		fmt.Fprintf(b, "- Target audience: %s\n", campaign.TargetAudience)
	}
	if len(campaign.Tags) > 0 {
		fmt.Fprintf(b, "- Tags: %s\n", joinOrNone(campaign.Tags))
	}
	if len(campaign.Countries) > 0 {
		fmt.Fprintf(b, "- Target countries: %s\n", strings.ToUpper(joinOrNone(campaign.Countries)))
	}
	b.WriteString("\n")
}

func writeLanguageRule(b *strings.Builder, language, target string) {
	fmt.Fprintf(b, "Write %s in %s.\n", target, language)
	if NeedsTranslation(language) {
		fmt.Fprintf(b, `Also add "headline_en" and "body_en" with English translations to %s.`+"\n", target)
	}
}

func joinOrNone(values []string) string {
	values = lo.Compact(lo.Map(values, func(v string, _ int) string { return strings.TrimSpace(v) }))
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
