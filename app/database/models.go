package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Credits        int       `json:"credits"`
	IsAdmin        bool      `json:"is_admin"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Campaign struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	Tags               []string  `json:"tags"`
	Description        string    `json:"description"`
	ProductDescription string    `json:"product_description"`
	TargetAudience     string    `json:"target_audience"`
	RssCategories      []string  `json:"rss_categories"`
	RssCountries       []string  `json:"rss_countries"`
	UpdateSchedule     bool      `json:"update_schedule"`
	UpdateHour         int       `json:"update_hour"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type RssFeed struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Categories []string  `json:"categories"`
	Country    string    `json:"country"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AdPlacement is stored as JSONB on ai_generated_items.
type AdPlacement struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	CTA        string `json:"cta"`
	HeadlineEn string `json:"headline_en,omitempty"`
	BodyEn     string `json:"body_en,omitempty"`
}

func (a AdPlacement) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AdPlacement) Scan(src any) error {
	return scanJSON(src, a)
}

type AiItem struct {
	ID               string      `json:"id"`
	CampaignID       string      `json:"campaign_id"`
	Headline         string      `json:"headline"`
	SourceLink       string      `json:"source_link"`
	Clickbait        string      `json:"clickbait"`
	RelevanceScore   int         `json:"relevance_score"`
	Trend            string      `json:"trend"`
	Description      string      `json:"description"`
	Tooltip          string      `json:"tooltip"`
	AdPlacement      AdPlacement `json:"ad_placement"`
	Tags             []string    `json:"tags"`
	Keywords         []string    `json:"keywords"`
	ImageURL         string      `json:"image_url"`
	OriginalImageURL string      `json:"original_image_url"`
	ImagePrompt      string      `json:"image_prompt"`
	Published        bool        `json:"published"`
	VariantCount     int         `json:"variant_count"`
	FavoriteCount    int         `json:"favorite_count"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type AdVariant struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	DisplayOrder int       `json:"display_order"`
	Headline     string    `json:"headline"`
	Body         string    `json:"body"`
	CTA          string    `json:"cta"`
	HeadlineEn   string    `json:"headline_en,omitempty"`
	BodyEn       string    `json:"body_en,omitempty"`
	ImageURL     string    `json:"image_url"`
	ImagePrompt  string    `json:"image_prompt"`
	Tone         string    `json:"tone"`
	Focus        string    `json:"focus"`
	Favorite     bool      `json:"favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Section struct {
	Subtitle    string   `json:"subtitle"`
	Paragraphs  []string `json:"paragraphs"`
	ImageURL    string   `json:"image_url,omitempty"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
	CTA         string   `json:"cta,omitempty"`
}

// Sections is stored as a JSONB array on landing_pages.
type Sections []Section

func (s Sections) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Sections) Scan(src any) error {
	return scanJSON(src, s)
}

type LandingPage struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	ViewCount int       `json:"view_count"`
	Sections  Sections  `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
