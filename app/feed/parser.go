package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// FeedParser turns raw feed bytes into retained items.
type FeedParser interface {
	Run(data []byte, source Source, now time.Time) ([]Item, error)
}

var _ FeedParser = (*Parser)(nil)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses RSS or Atom data and returns at most MaxItemsPerFeed items that
// have some content and were published within MaxItemAge of now.
func (p *Parser) Run(data []byte, source Source, now time.Time) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, min(len(parsed.Items), MaxItemsPerFeed))
	for _, entry := range parsed.Items {
		if len(items) >= MaxItemsPerFeed {
			break
		}
		if entry == nil {
			continue
		}

		item, ok := p.normalizeItem(entry, source)
		if !ok {
			slog.Debug("Dropping feed item without content", "feed", source.Name, "guid", entry.GUID)
			continue
		}

		if item.PublishedAt.IsZero() {
			slog.Debug("Dropping feed item with missing or unparsable date", "feed", source.Name, "link", item.Link, "raw_date", item.PublishedRaw)
			continue
		}

		if !IsRecent(item.PublishedAt, now) {
			slog.Debug("Dropping stale feed item", "feed", source.Name, "link", item.Link, "published_at", item.PublishedAt)
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// IsRecent reports whether t lies within MaxItemAge before now.
func IsRecent(t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	age := now.Sub(t)
	return age <= MaxItemAge && age >= -maxFutureSkew
}

func (p *Parser) normalizeItem(entry *gofeed.Item, source Source) (Item, bool) {
	rawTitle := cmp.Or(entry.Title, firstExtensionValue(entry.Extensions, "dc", "title"), firstExtensionValue(entry.Extensions, "media", "title"))
	rawDescription := cmp.Or(entry.Description, entry.Content, mediaDescription(entry.Extensions))

	hasContent := strings.TrimSpace(rawTitle) != "" ||
		strings.TrimSpace(rawDescription) != "" ||
		strings.TrimSpace(entry.Content) != "" ||
		strings.TrimSpace(entry.Link) != ""
	if !hasContent {
		return Item{}, false
	}

	link := strings.TrimSpace(entry.Link)
	if link == "" && isAbsoluteHTTP(entry.GUID) {
		link = strings.TrimSpace(entry.GUID)
	}

	title := CleanText(rawTitle)
	if title == "" {
		title = cmp.Or(TitleFromURL(link), TitleFromURL(entry.GUID), untitledArticle)
	}

	description := CleanText(rawDescription)
	if description == "" && title != "" {
		description = "Article: " + title
	}

	item := Item{
		Title:       title,
		Link:        link,
		Description: description,
		Content:     CleanText(entry.Content),
		SourceID:    source.ID,
		SourceName:  source.Name,
		Categories:  mergeCategories(entry.Categories, source.Categories),
		Author:      p.extractAuthor(entry),
		ImageURL:    p.extractImage(entry),
	}

	item.PublishedRaw, item.PublishedAt = p.extractPublished(entry)

	return item, true
}

func (p *Parser) extractPublished(entry *gofeed.Item) (string, time.Time) {
	if entry.PublishedParsed != nil {
		return entry.Published, entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.Updated, entry.UpdatedParsed.UTC()
	}

	raw := cmp.Or(entry.Published, entry.Updated)
	if entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Date) > 0 {
		raw = cmp.Or(raw, entry.DublinCoreExt.Date[0])
	}

	for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return raw, t.UTC()
		}
	}

	return raw, time.Time{}
}

func (p *Parser) extractImage(entry *gofeed.Item) string {
	for _, enclosure := range entry.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") || looksLikeImageURL(enclosure.URL) {
			return enclosure.URL
		}
	}

	if u := firstExtensionAttr(entry.Extensions, "media", "content", "url"); u != "" {
		return u
	}
	if u := firstExtensionAttr(entry.Extensions, "media", "thumbnail", "url"); u != "" {
		return u
	}
	if entry.Image != nil {
		return entry.Image.URL
	}

	return ""
}

func (p *Parser) extractAuthor(entry *gofeed.Item) string {
	if entry.Author != nil {
		return strings.TrimSpace(cmp.Or(entry.Author.Name, entry.Author.Email))
	}
	for _, author := range entry.Authors {
		if author != nil {
			if name := strings.TrimSpace(cmp.Or(author.Name, author.Email)); name != "" {
				return name
			}
		}
	}
	if entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Creator) > 0 {
		return strings.TrimSpace(entry.DublinCoreExt.Creator[0])
	}
	return ""
}

func mediaDescription(extensions ext.Extensions) string {
	if d := firstExtensionValue(extensions, "media", "description"); d != "" {
		return d
	}
	for _, group := range extensions["media"]["group"] {
		for _, child := range group.Children["description"] {
			if child.Value != "" {
				return child.Value
			}
		}
	}
	return ""
}

func firstExtensionValue(extensions ext.Extensions, namespace, name string) string {
	for _, e := range extensions[namespace][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

func firstExtensionAttr(extensions ext.Extensions, namespace, name, attr string) string {
	for _, e := range extensions[namespace][name] {
		if medium, ok := e.Attrs["medium"]; ok && medium != "image" {
			continue
		}
		if typ, ok := e.Attrs["type"]; ok && !strings.HasPrefix(typ, "image/") {
			continue
		}
		if v := strings.TrimSpace(e.Attrs[attr]); v != "" {
			return v
		}
	}
	return ""
}

func mergeCategories(itemCategories, sourceCategories []string) []string {
	seen := make(map[string]bool, len(itemCategories)+len(sourceCategories))
	merged := make([]string, 0, len(itemCategories)+len(sourceCategories))
	for _, c := range append(append([]string{}, sourceCategories...), itemCategories...) {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, c)
	}
	return merged
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func looksLikeImageURL(raw string) bool {
	lower := strings.ToLower(raw)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, suffix := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
