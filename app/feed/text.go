package feed

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const untitledArticle = "Untitled Article"

var titleCaser = cases.Title(language.English)

// CleanText strips markup, decodes entities, collapses whitespace and
// truncates to MaxTextLength runes.
func CleanText(s string) string {
	return Truncate(PlainText(s), MaxTextLength)
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}

	return strings.Join(strings.Fields(text), " ")
}

func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}

// TitleFromURL derives a readable title from the last path segment of a URL,
// e.g. ".../ai-chips_are-here.html" becomes "Ai Chips Are Here".
func TitleFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path == "" {
		return ""
	}

	segment := path.Base(strings.TrimRight(u.Path, "/"))
	if segment == "." || segment == "/" || segment == "" {
		return ""
	}

	if ext := path.Ext(segment); ext != "" {
		segment = strings.TrimSuffix(segment, ext)
	}

	segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	segment = strings.Join(strings.Fields(segment), " ")
	if segment == "" {
		return ""
	}

	return titleCaser.String(segment)
}
