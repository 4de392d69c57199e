package content

import (
	"fmt"
	"html"
	"mime"
	"path"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/database"
)

// FeedItemLimit caps how many published items a campaign feed carries.
const FeedItemLimit = 50

// CampaignFeed renders a campaign's published items as a feed. Items are
// expected newest first.
func CampaignFeed(campaign *database.Campaign, items []database.AiItem, baseURL string) *feeds.Feed {
	link := campaign.URL
	if link == "" {
		link = fmt.Sprintf("%s/public/campaigns/%s/feed.xml", baseURL, campaign.ID)
	}

	description := campaign.Description
	if description == "" {
		description = fmt.Sprintf("Published content for campaign %s", campaign.Name)
	}

	updated := campaign.UpdatedAt
	if len(items) > 0 && items[0].UpdatedAt.After(updated) {
		updated = items[0].UpdatedAt
	}

	return &feeds.Feed{
		Title:       campaign.Name,
		Link:        &feeds.Link{Href: link},
		Description: description,
		Created:     campaign.CreatedAt,
		Updated:     updated,
		Items: lo.Map(items, func(item database.AiItem, _ int) *feeds.Item {
			return feedItem(item)
		}),
	}
}

func feedItem(item database.AiItem) *feeds.Item {
	out := &feeds.Item{
		Title:       item.Headline,
		Link:        &feeds.Link{Href: item.SourceLink},
		Description: lo.CoalesceOrEmpty(item.Clickbait, item.Description),
		Content:     itemHTML(item),
		Created:     item.CreatedAt,
		Updated:     item.UpdatedAt,
		Id:          item.ID,
	}

	if item.ImageURL != "" {
		out.Enclosure = &feeds.Enclosure{Url: item.ImageURL, Length: "0", Type: imageType(item.ImageURL)}
	}

	return out
}

func itemHTML(item database.AiItem) string {
	var b strings.Builder
	if item.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(item.Description))
	}

	ad := item.AdPlacement
	if ad.Headline != "" || ad.Body != "" {
		fmt.Fprintf(&b, "<p><strong>%s</strong></p><p>%s</p>", html.EscapeString(ad.Headline), html.EscapeString(ad.Body))
		if ad.CTA != "" {
			fmt.Fprintf(&b, "<p><em>%s</em></p>", html.EscapeString(ad.CTA))
		}
	}

	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(strings.Join(item.Tags, ", ")))
	}
	return b.String()
}

func imageType(imageURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(imageURL, "?", 2)[0]))
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}
