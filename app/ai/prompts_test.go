package ai

import (
	"strings"
	"testing"
)

var testCampaign = CampaignInfo{
	Name:               "Brew Co",
	URL:                "https://brew.example",
	ProductDescription: "Specialty coffee beans",
	TargetAudience:     "Home baristas",
	Tags:               []string{"coffee", "lifestyle"},
}

func TestBuildContentPrompt(t *testing.T) {
	news := []NewsItem{
		{Headline: "Coffee prices surge", Link: "https://news.example/coffee", Source: "Markets", Description: "Beans up 20%"},
		{Headline: "New espresso gadget", Link: "https://news.example/gadget"},
	}

	prompt := BuildContentPrompt(news, []string{"business", "food"}, testCampaign)

	for _, want := range []string{
		"Brew Co",
		"Specialty coffee beans",
		"business, food",
		"1. Coffee prices surge",
		"https://news.example/gadget",
		`"results"`,
		"in English",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if strings.Contains(prompt, "headline_en") {
		t.Error("Expected no translation request for English campaigns")
	}
}

func TestBuildVariantPromptRequestsTranslation(t *testing.T) {
	campaign := testCampaign
	campaign.Countries = []string{"DE"}

	prompt := BuildVariantPrompt(VariantSource{Headline: "Coffee prices surge"}, campaign, VariantOptions{Count: 25, VaryTone: true})

	if !strings.Contains(prompt, "Write 10 alternative ad variants") {
		t.Errorf("Expected count to be clamped to 10, got: %s", prompt)
	}
	if !strings.Contains(prompt, "in German") {
		t.Error("Expected German language instruction")
	}
	if !strings.Contains(prompt, "headline_en") {
		t.Error("Expected English back-translation request")
	}
	if !strings.Contains(prompt, "different tone") {
		t.Error("Expected tone variation instruction")
	}
}

func TestBuildLandingPagePromptIncludesArticle(t *testing.T) {
	prompt := BuildLandingPagePrompt(LandingPageSource{Headline: "Coffee prices surge", Link: "https://news.example/coffee"}, "Article body text", testCampaign)

	if !strings.Contains(prompt, "Article body text") {
		t.Error("Expected article text in prompt")
	}
	if !strings.Contains(prompt, `"sections"`) {
		t.Error("Expected sections schema in prompt")
	}
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := BuildImagePrompt("  A cup of coffee on a desk ", testCampaign)

	if !strings.HasPrefix(prompt, "A cup of coffee on a desk") {
		t.Errorf("Expected trimmed subject first, got: %s", prompt)
	}
	if !strings.Contains(prompt, "no text") {
		t.Error("Expected no-text constraint")
	}
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		countries []string
		expected  string
	}{
		{nil, "English"},
		{[]string{"us"}, "English"},
		{[]string{"FR"}, "French"},
		{[]string{"zz", "br"}, "Portuguese"},
	}

	for _, tt := range tests {
		if got := LanguageFor(tt.countries); got != tt.expected {
			t.Errorf("LanguageFor(%v): expected %s, got %s", tt.countries, tt.expected, got)
		}
	}
}
