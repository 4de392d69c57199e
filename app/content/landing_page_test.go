package content

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

const landingResponse = `{
  "title": "Smarter Tea Mornings",
  "sections": [
    {"subtitle": "Why now", "paragraphs": ["Kettles are getting smart.", ""]},
    {"subtitle": "What you get", "paragraphs": ["Exact temperatures."], "cta": "Order today"}
  ]
}`

func TestGenerateLandingPageTwice(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	item := f.addItem(t, database.AiItem{Headline: "Kettles go smart", SourceLink: "https://news.example/kettles"})

	article := &fakeArticle{text: "Full article text"}
	llm := &fakeCompleter{responses: []string{landingResponse}}
	g := NewLandingPageGenerator(f.repos, article, llm)

	result, err := g.Generate(ctx, ownerID, item.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.SectionCount != 2 {
		t.Errorf("Expected 2 sections, got: %d", result.SectionCount)
	}
	if len(result.LandingPage.Sections[0].Paragraphs) != 1 {
		t.Errorf("Expected empty paragraphs dropped, got: %v", result.LandingPage.Sections[0].Paragraphs)
	}
	if !strings.HasPrefix(result.LandingPage.Slug, "smarter-tea-mornings-") {
		t.Errorf("Expected slug from title, got: %s", result.LandingPage.Slug)
	}
	if !result.LandingPage.Active {
		t.Error("Expected new landing page to be active")
	}
	if len(article.urls) != 1 || article.urls[0] != "https://news.example/kettles" {
		t.Errorf("Expected article text read from source link, got: %v", article.urls)
	}
	if !strings.Contains(llm.prompts[0], "Full article text") {
		t.Error("Expected article text in the prompt")
	}

	_, err = g.Generate(ctx, ownerID, item.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("Expected conflict error on second call, got: %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Errorf("Expected no LLM call on conflict, got: %d calls", len(llm.prompts))
	}

	page, _ := f.store.GetLandingPageByItem(ctx, item.ID)
	if page == nil || page.ID != result.LandingPage.ID {
		t.Error("Expected exactly the first landing page to exist")
	}
}

func TestGenerateLandingPageErrors(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	item := f.addItem(t, database.AiItem{Headline: "A"})

	g := NewLandingPageGenerator(f.repos, &fakeArticle{}, &fakeCompleter{responses: []string{`{"title": "No sections"}`}})

	if _, err := g.Generate(ctx, ownerID, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found error, got: %v", err)
	}
	if _, err := g.Generate(ctx, strangerID, item.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Expected forbidden error, got: %v", err)
	}
	if _, err := g.Generate(ctx, ownerID, item.ID); !apperr.Is(err, apperr.KindParse) {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

func TestViewLandingPage(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	item := f.addItem(t, database.AiItem{Headline: "A"})

	g := NewLandingPageGenerator(f.repos, &fakeArticle{}, &fakeCompleter{responses: []string{landingResponse}})
	created, err := g.Generate(ctx, ownerID, item.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for want := 1; want <= 2; want++ {
		view, err := g.View(ctx, created.LandingPage.Slug)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if view.ViewCount != want {
			t.Errorf("Expected view count %d, got: %d", want, view.ViewCount)
		}
		if view.Item.ID != item.ID || view.Campaign.ID != f.campaign.ID {
			t.Error("Expected nested item and campaign")
		}
	}

	if _, err := g.View(ctx, "unknown-slug"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found error, got: %v", err)
	}

	if err := g.Delete(ctx, ownerID, item.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := g.View(ctx, created.LandingPage.Slug); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found after delete, got: %v", err)
	}
	if still, _ := f.store.GetItem(ctx, item.ID); still == nil {
		t.Error("Expected the item to survive landing page deletion")
	}
}

func TestSlug(t *testing.T) {
	suffix := `-[0-9a-f]{8}$`
	tests := []struct {
		title string
		base  string
	}{
		{"Smarter Tea Mornings", "smarter-tea-mornings"},
		{"  Crème Brûlée: 5 tips!  ", "creme-brulee-5-tips"},
		{"!!!", "page"},
		{strings.Repeat("long ", 30), strings.TrimRight(strings.Repeat("long-", 12), "-")},
	}

	for _, tt := range tests {
		got := Slug(tt.title)
		if !regexp.MustCompile("^" + regexp.QuoteMeta(tt.base) + suffix).MatchString(got) {
			t.Errorf("Slug(%q): expected %s-xxxxxxxx, got %s", tt.title, tt.base, got)
		}
	}
}
