package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
)

const contentResponse = `{
  "results": [
    {
      "headline": "Kettles go smart",
      "link": "https://news.example/kettles",
      "clickbait": "Your kettle is now smarter than you",
      "relevance_score": 130,
      "trend": "Smart home",
      "description": "Tie the kettle to the smart home wave",
      "tooltip": "Rising interest",
      "ad_placement": {"headline": "Boil smarter", "body": "Wifi kettle", "cta": "Buy now"},
      "tags": ["smart", ""],
      "keywords": ["kettle"],
      "image_prompt": "A kettle on a kitchen counter"
    },
    {
      "headline": "Tea prices",
      "link": "https://news.example/tea",
      "relevance_score": -4,
      "description": "Save on tea",
      "ad_placement": {"headline": "Brew for less", "body": "Save", "cta": "Shop"},
      "tags": []
    }
  ],
  "trend_summary": "Smart homes",
  "campaign_strategy": "Lean in"
}`

func newGenerator(f *fixture, llm *fakeCompleter, dedup bool) *Generator {
	news := &fakeNews{result: newsResult(time.Now())}
	images := &fakeImages{byLink: map[string]string{"https://news.example/kettles": "https://news.example/og.jpg"}}
	return NewGenerator(f.repos, f.ledger, news, images, llm, dedup)
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, 3)
	llm := &fakeCompleter{responses: []string{contentResponse}}

	result, err := newGenerator(f, llm, true).Generate(context.Background(), ownerID, f.campaign.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Generated != 2 || len(result.Items) != 2 {
		t.Fatalf("Expected 2 generated items, got: %d", result.Generated)
	}
	if result.FeedsSucceeded != 1 || result.FeedsFailed != 1 {
		t.Errorf("Expected feed counts 1/1, got: %d/%d", result.FeedsSucceeded, result.FeedsFailed)
	}
	if result.TrendSummary != "Smart homes" {
		t.Errorf("Expected trend summary 'Smart homes', got: %s", result.TrendSummary)
	}

	first := result.Items[0]
	if first.ID == "" {
		t.Error("Expected saved item to have an id")
	}
	if first.Published {
		t.Error("Expected new items to be unpublished")
	}
	if first.RelevanceScore != 100 {
		t.Errorf("Expected score clamped to 100, got: %d", first.RelevanceScore)
	}
	if result.Items[1].RelevanceScore != 0 {
		t.Errorf("Expected score clamped to 0, got: %d", result.Items[1].RelevanceScore)
	}
	if first.ImageURL != "https://news.example/og.jpg" || first.OriginalImageURL != "https://news.example/og.jpg" {
		t.Errorf("Expected extracted image joined by link, got: %s", first.ImageURL)
	}
	if result.Items[1].ImageURL != "" {
		t.Errorf("Expected no image for second item, got: %s", result.Items[1].ImageURL)
	}
	if first.AdPlacement.Headline != "Boil smarter" {
		t.Errorf("Expected ad placement headline 'Boil smarter', got: %s", first.AdPlacement.Headline)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "smart" {
		t.Errorf("Expected empty tags dropped, got: %v", first.Tags)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "Kettles go smart") || !strings.Contains(prompt, "Smart Kettles") {
		t.Errorf("Expected prompt to carry news and campaign, got: %s", prompt)
	}

	if f.balance(t) != 3 {
		t.Errorf("Expected content generation to leave credits unchanged, got: %d", f.balance(t))
	}
}

func TestGenerateSkipsDuplicateLinks(t *testing.T) {
	f := newFixture(t, 3)
	f.addItem(t, database.AiItem{Headline: "Earlier", SourceLink: "https://news.example/kettles"})

	llm := &fakeCompleter{responses: []string{contentResponse}}

	result, err := newGenerator(f, llm, true).Generate(context.Background(), ownerID, f.campaign.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Generated != 1 || result.Skipped != 1 {
		t.Errorf("Expected 1 generated and 1 skipped, got: %d and %d", result.Generated, result.Skipped)
	}

	result, err = newGenerator(f, llm, false).Generate(context.Background(), ownerID, f.campaign.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Generated != 2 || result.Skipped != 0 {
		t.Errorf("Expected duplicates kept with dedup off, got: %d generated, %d skipped", result.Generated, result.Skipped)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		f := newFixture(t, 3)
		_, err := newGenerator(f, &fakeCompleter{}, true).Generate(context.Background(), strangerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden error, got: %v", err)
		}
	})

	t.Run("missing campaign", func(t *testing.T) {
		f := newFixture(t, 3)
		_, err := newGenerator(f, &fakeCompleter{}, true).Generate(context.Background(), ownerID, "missing")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found error, got: %v", err)
		}
	})

	t.Run("no credits", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := newGenerator(f, &fakeCompleter{}, true).Generate(context.Background(), ownerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindInsufficientCredits) {
			t.Errorf("Expected insufficient credits error, got: %v", err)
		}
	})

	t.Run("no categories", func(t *testing.T) {
		f := newFixture(t, 3)
		f.campaign.RssCategories = nil
		_ = f.store.UpdateCampaign(context.Background(), f.campaign)

		_, err := newGenerator(f, &fakeCompleter{}, true).Generate(context.Background(), ownerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Expected validation error, got: %v", err)
		}
	})

	t.Run("no news", func(t *testing.T) {
		f := newFixture(t, 3)
		news := &fakeNews{result: &feed.Result{Items: []feed.Item{}, Message: "No recent items found in the matching feeds"}}
		g := NewGenerator(f.repos, f.ledger, news, &fakeImages{}, &fakeCompleter{}, true)

		_, err := g.Generate(context.Background(), ownerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Expected validation error, got: %v", err)
		}
	})

	t.Run("llm failure", func(t *testing.T) {
		f := newFixture(t, 3)
		llm := &fakeCompleter{err: apperr.New(apperr.KindUpstream, "LLM request failed")}

		_, err := newGenerator(f, llm, true).Generate(context.Background(), ownerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindUpstream) {
			t.Errorf("Expected upstream error, got: %v", err)
		}
	})

	t.Run("malformed llm json", func(t *testing.T) {
		f := newFixture(t, 3)
		llm := &fakeCompleter{responses: []string{`{"results": [`}}

		_, err := newGenerator(f, llm, true).Generate(context.Background(), ownerID, f.campaign.ID)
		if !apperr.Is(err, apperr.KindParse) {
			t.Errorf("Expected parse error, got: %v", err)
		}

		page, _, _ := f.store.QueryItems(context.Background(), database.ItemQuery{CampaignID: f.campaign.ID, Status: database.StatusAll, Limit: 10})
		if len(page) != 0 {
			t.Errorf("Expected nothing saved, got: %d items", len(page))
		}
	})

	t.Run("aggregator failure", func(t *testing.T) {
		f := newFixture(t, 3)
		g := NewGenerator(f.repos, f.ledger, &fakeNews{err: errors.New("db down")}, &fakeImages{}, &fakeCompleter{}, true)

		if _, err := g.Generate(context.Background(), ownerID, f.campaign.ID); err == nil {
			t.Error("Expected error, got nil")
		}
	})
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-10, 0},
		{0, 0},
		{42.4, 42},
		{42.6, 43},
		{100, 100},
		{250, 100},
	}

	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
