package feed

import (
	"time"
)

const (
	MaxItemsPerFeed = 10
	MaxMergedItems  = 30
	MaxItemAge      = 24 * time.Hour
	MaxTextLength   = 500

	// Tolerated clock skew for items dated slightly in the future.
	maxFutureSkew = 5 * time.Minute
)

// Source describes one catalog feed handed to the fetcher.
type Source struct {
	ID         string
	Name       string
	URL        string
	Categories []string
}

// Item is a normalized feed entry. It is never persisted on its own.
type Item struct {
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Description  string    `json:"description"`
	Content      string    `json:"content,omitempty"`
	PublishedRaw string    `json:"pub_date"`
	PublishedAt  time.Time `json:"pub_date_iso"`
	SourceID     string    `json:"source_id"`
	SourceName   string    `json:"source_name"`
	Categories   []string  `json:"categories"`
	Author       string    `json:"author,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
}

// FetchResult is the outcome of fetching and parsing a single feed.
type FetchResult struct {
	Source  Source
	Success bool
	Items   []Item
	Error   string
}

// Result is the merged, recency-sorted content for a campaign.
type Result struct {
	Items          []Item `json:"items"`
	FeedsTotal     int    `json:"feeds_total"`
	FeedsSucceeded int    `json:"feeds_succeeded"`
	FeedsFailed    int    `json:"feeds_failed"`
	Message        string `json:"message,omitempty"`
}

// Catalog seed types

type CatalogFile struct {
	Feeds []CatalogEntry `yaml:"feeds"`
}

type CatalogEntry struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Categories []string `yaml:"categories"`
	Country    string   `yaml:"country"`
	Active     *bool    `yaml:"active"`
}

func (e CatalogEntry) IsActive() bool {
	return e.Active == nil || *e.Active
}
