package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type FeedStore struct {
	db *DB
}

var _ FeedRepository = (*FeedStore)(nil)

func NewFeedRepository(db *DB) *FeedStore {
	return &FeedStore{db: db}
}

const feedColumns = `id, name, url, categories, country, active, created_at, updated_at`

func scanFeed(row interface{ Scan(...any) error }) (*RssFeed, error) {
	var f RssFeed
	err := row.Scan(&f.ID, &f.Name, &f.URL, pq.Array(&f.Categories), &f.Country, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeedStore) ListFeeds(ctx context.Context) ([]RssFeed, error) {
	return r.list(ctx, `SELECT `+feedColumns+` FROM rss_feeds ORDER BY name`)
}

func (r *FeedStore) ListActiveFeedsByCategories(ctx context.Context, categories []string) ([]RssFeed, error) {
	if len(categories) == 0 {
		return []RssFeed{}, nil
	}
	return r.list(ctx, `SELECT `+feedColumns+` FROM rss_feeds
		WHERE active = true AND categories && $1
		ORDER BY name`, pq.Array(categories))
}

func (r *FeedStore) list(ctx context.Context, query string, args ...any) ([]RssFeed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	feeds := []RssFeed{}
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT unnest(categories) AS category
		FROM rss_feeds
		WHERE active = true
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *FeedStore) GetFeed(ctx context.Context, id string) (*RssFeed, error) {
	f, err := scanFeed(r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM rss_feeds WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return f, nil
}

func (r *FeedStore) CreateFeed(ctx context.Context, f *RssFeed) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rss_feeds (name, url, categories, country, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, f.Name, f.URL, pq.Array(f.Categories), f.Country, f.Active).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("A feed with this URL already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}
	return nil
}

func (r *FeedStore) UpdateFeed(ctx context.Context, f *RssFeed) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE rss_feeds
		SET name = $2, url = $3, categories = $4, country = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, f.ID, f.Name, f.URL, pq.Array(f.Categories), f.Country, f.Active).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound("Feed not found")
	}
	if isUniqueViolation(err) {
		return apperr.Conflict("A feed with this URL already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}
	return nil
}

// UpsertFeedByURL inserts a feed or refreshes the catalog row with the same
// URL.
func (r *FeedStore) UpsertFeedByURL(ctx context.Context, f *RssFeed) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rss_feeds (name, url, categories, country, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			categories = EXCLUDED.categories,
			country = EXCLUDED.country,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, f.Name, f.URL, pq.Array(f.Categories), f.Country, f.Active).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}
	return nil
}

func (r *FeedStore) DeleteFeed(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "rss_feeds", id)
}
