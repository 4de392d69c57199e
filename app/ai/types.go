package ai

import (
	"fmt"
	"strings"
)

type CampaignInfo struct {
	Name               string
	URL                string
	Description        string
	ProductDescription string
	TargetAudience     string
	Tags               []string
	Countries          []string
}

type NewsItem struct {
	Headline    string
	Link        string
	Description string
	Source      string
	PublishedAt string
	ImageURL    string
}

type AdCopy struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	CTA        string `json:"cta"`
	HeadlineEn string `json:"headline_en,omitempty"`
	BodyEn     string `json:"body_en,omitempty"`
}

type ContentResult struct {
	Headline       string   `json:"headline"`
	Link           string   `json:"link"`
	Clickbait      string   `json:"clickbait"`
	RelevanceScore float64  `json:"relevance_score"`
	Trend          string   `json:"trend"`
	Description    string   `json:"description"`
	Tooltip        string   `json:"tooltip"`
	AdPlacement    AdCopy   `json:"ad_placement"`
	Tags           []string `json:"tags"`
	Keywords       []string `json:"keywords"`
	ImagePrompt    string   `json:"image_prompt"`
}

type ContentResponse struct {
	Results          []ContentResult `json:"results"`
	TrendSummary     string          `json:"trend_summary"`
	CampaignStrategy string          `json:"campaign_strategy"`
}

func ValidateContent(r *ContentResponse) error {
	if r.Results == nil {
		return invalidResponse("results array is missing")
	}
	for i, result := range r.Results {
		switch {
		case strings.TrimSpace(result.Headline) == "":
			return invalidResponse(fmt.Sprintf("result %d has no headline", i))
		case strings.TrimSpace(result.Description) == "":
			return invalidResponse(fmt.Sprintf("result %d has no description", i))
		case result.Tags == nil:
			return invalidResponse(fmt.Sprintf("result %d has no tags array", i))
		case strings.TrimSpace(result.AdPlacement.Headline) == "":
			return invalidResponse(fmt.Sprintf("result %d has no ad placement", i))
		}
	}
	return nil
}

type VariantCopy struct {
	AdCopy
	Tone        string `json:"tone"`
	Focus       string `json:"focus"`
	ImagePrompt string `json:"image_prompt"`
}

type VariantResponse struct {
	Variants []VariantCopy `json:"variants"`
}

func ValidateVariants(r *VariantResponse) error {
	if len(r.Variants) == 0 {
		return invalidResponse("variants array is missing or empty")
	}
	for i, v := range r.Variants {
		if strings.TrimSpace(v.Headline) == "" || strings.TrimSpace(v.Body) == "" {
			return invalidResponse(fmt.Sprintf("variant %d needs headline and body", i))
		}
	}
	return nil
}

type Section struct {
	Subtitle    string   `json:"subtitle"`
	Paragraphs  []string `json:"paragraphs"`
	ImageURL    string   `json:"image_url,omitempty"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
	CTA         string   `json:"cta,omitempty"`
}

type LandingPageResponse struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

func ValidateLandingPage(r *LandingPageResponse) error {
	if strings.TrimSpace(r.Title) == "" {
		return invalidResponse("title is missing")
	}
	if len(r.Sections) == 0 {
		return invalidResponse("sections array is missing or empty")
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Subtitle) == "" || len(s.Paragraphs) == 0 {
			return invalidResponse(fmt.Sprintf("section %d needs a subtitle and paragraphs", i))
		}
	}
	return nil
}

type SuggestionResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error,omitempty"`
	SuggestedTags      []string `json:"suggested_tags"`
	Description        string   `json:"description"`
	ProductDescription string   `json:"product_description"`
	TargetAudience     string   `json:"target_audience"`
	RssCategories      []string `json:"rss_categories"`
}

func ValidateSuggestion(r *SuggestionResponse) error {
	if r.SuggestedTags == nil {
		return invalidResponse("suggested_tags is missing")
	}
	if strings.TrimSpace(r.Description) == "" {
		return invalidResponse("description is missing")
	}
	if r.RssCategories == nil {
		r.RssCategories = []string{}
	}
	r.Success = true
	r.Error = ""
	return nil
}

// EmptySuggestion is the well-formed payload returned when the model output
// is unusable.
func EmptySuggestion(err error) SuggestionResponse {
	return SuggestionResponse{
		Success:       false,
		Error:         fmt.Sprintf("Could not analyze the page: %v", err),
		SuggestedTags: []string{},
		RssCategories: []string{},
	}
}
