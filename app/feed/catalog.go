package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

type CatalogStore interface {
	UpsertFeedByURL(ctx context.Context, feed *database.RssFeed) error
}

// LoadCatalog reads the YAML feed catalog seed. A missing file yields an
// empty catalog.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []CatalogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, entry := range file.Feeds {
		if err := ValidateSource(entry.Name, entry.URL, entry.Categories); err != nil {
			return nil, fmt.Errorf("invalid feed at index %d: %w", i, err)
		}
	}

	return file.Feeds, nil
}

// SeedCatalog upserts catalog entries by URL and returns how many were
// stored.
func SeedCatalog(ctx context.Context, store CatalogStore, entries []CatalogEntry) int {
	seeded := 0
	for _, entry := range entries {
		f := &database.RssFeed{
			Name:       strings.TrimSpace(entry.Name),
			URL:        strings.TrimSpace(entry.URL),
			Categories: NormalizeCategories(entry.Categories),
			Country:    strings.ToLower(strings.TrimSpace(entry.Country)),
			Active:     entry.IsActive(),
		}
		if err := store.UpsertFeedByURL(ctx, f); err != nil {
			slog.Warn("Failed to seed feed", "feed", entry.Name, "url", entry.URL, "error", err)
			continue
		}
		seeded++
	}
	return seeded
}

func ValidateSource(name, rawURL string, categories []string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("feed name is required")
	}
	if !isAbsoluteHTTP(rawURL) {
		return apperr.Validation("feed URL must be an absolute http(s) URL")
	}
	if _, err := url.Parse(rawURL); err != nil {
		return apperr.Validation("feed URL is invalid")
	}
	if len(NormalizeCategories(categories)) == 0 {
		return apperr.Validation("at least one category is required")
	}
	return nil
}

func NormalizeCategories(categories []string) []string {
	return normalizeCodes(categories)
}
