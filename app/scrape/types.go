package scrape

import "time"

const (
	DefaultBatchSize = 3
	DefaultBatchWait = time.Second
	MaxBatchWait     = 30 * time.Second

	ArticleTextLimit = 2000
	maxPageBytes     = 4 << 20
)

// Candidate is a news item whose image should be resolved.
type Candidate struct {
	Headline          string `json:"headline"`
	Link              string `json:"link"`
	ImageURL          string `json:"image_url,omitempty"`
	ExtractedImageURL string `json:"extracted_image_url,omitempty"`
}
