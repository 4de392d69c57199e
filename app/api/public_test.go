package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/database"
)

func TestPublicLandingPageCountsViews(t *testing.T) {
	env := newTestEnv(t, 0)
	campaign := env.addCampaign(t, ownerID)
	item := env.addItem(t, campaign.ID, database.AiItem{Headline: "Kettles", SourceLink: "https://news.example/k"})
	env.llm.set(landingJSON)

	w := env.do(t, http.MethodPost, "/api/content/"+item.ID+"/landing-page", ownerToken, nil)
	expectStatus(t, w, http.StatusCreated)
	created := decode[content.LandingPageResult](t, w)
	slug := created.LandingPage.Slug

	for want := 1; want <= 2; want++ {
		w = env.do(t, http.MethodGet, "/public/landing/"+slug, "", nil)
		expectStatus(t, w, http.StatusOK)

		body := decode[map[string]any](t, w)
		if body["view_count"] != float64(want) {
			t.Errorf("Expected view_count %d, got %v", want, body["view_count"])
		}
		nested, _ := body["item"].(map[string]any)
		if nested["headline"] != "Kettles" {
			t.Errorf("Expected nested item, got %v", body["item"])
		}
		if _, ok := body["campaign"].(map[string]any); !ok {
			t.Errorf("Expected nested campaign, got %v", body["campaign"])
		}
	}
}

func TestPublicLandingPageUnknownSlug(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(t, http.MethodGet, "/public/landing/missing-slug", "", nil)

	expectStatus(t, w, http.StatusNotFound)
}

func TestCampaignFeedXML(t *testing.T) {
	env := newTestEnv(t, 0)
	campaign := env.addCampaign(t, ownerID)
	published := env.addItem(t, campaign.ID, database.AiItem{
		Headline:    "Kettles & Tea",
		SourceLink:  "https://news.example/k",
		Description: "Smart kettles arrive",
		ImageURL:    "https://cdn.example/k.png",
		AdPlacement: database.AdPlacement{Headline: "Boil smarter", Body: "Exact temperatures", CTA: "Shop"},
	})
	env.addItem(t, campaign.ID, database.AiItem{Headline: "Draft only", SourceLink: "https://news.example/d"})
	if _, err := env.store.SetPublished(context.Background(), published.ID, true); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	w := env.do(t, http.MethodGet, "/public/campaigns/"+campaign.ID+"/feed.xml", "", nil)
	expectStatus(t, w, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Expected RSS content type, got %q", ct)
	}
	if w.Header().Get("X-Feed-Items") != "1" {
		t.Errorf("Expected 1 feed item, got %q", w.Header().Get("X-Feed-Items"))
	}

	body := w.Body.String()
	if !strings.Contains(body, `<rss version="2.0"`) {
		t.Error("Expected an RSS 2.0 document")
	}
	if !strings.Contains(body, "Kettles &amp; Tea") {
		t.Error("Expected escaped item title in feed")
	}
	if strings.Contains(body, "Draft only") {
		t.Error("Expected drafts to be excluded from the feed")
	}
	if !strings.Contains(body, `url="https://cdn.example/k.png"`) || !strings.Contains(body, `type="image/png"`) {
		t.Error("Expected image enclosure in feed")
	}
}

func TestCampaignFeedUnknownCampaign(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(t, http.MethodGet, "/public/campaigns/"+uuid.NewString()+"/feed.xml", "", nil)

	expectStatus(t, w, http.StatusNotFound)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(t, http.MethodGet, "/health", "", nil)

	expectStatus(t, w, http.StatusOK)
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("Expected version test, got %v", body["version"])
	}
}
