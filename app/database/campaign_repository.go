package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type CampaignStore struct {
	db *DB
}

var _ CampaignRepository = (*CampaignStore)(nil)

func NewCampaignRepository(db *DB) *CampaignStore {
	return &CampaignStore{db: db}
}

const campaignColumns = `id, user_id, name, url, tags, description, product_description,
	target_audience, rss_categories, rss_countries, update_schedule, update_hour,
	created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.URL, pq.Array(&c.Tags), &c.Description,
		&c.ProductDescription, &c.TargetAudience, pq.Array(&c.RssCategories),
		pq.Array(&c.RssCountries), &c.UpdateSchedule, &c.UpdateHour,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignStore) ListCampaigns(ctx context.Context, userID string) ([]Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *CampaignStore) ListScheduledCampaigns(ctx context.Context, userID string) ([]Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns
		WHERE user_id = $1 AND update_schedule = true
		ORDER BY created_at`, userID)
}

func (r *CampaignStore) list(ctx context.Context, query string, args ...any) ([]Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

func (r *CampaignStore) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignStore) CreateCampaign(ctx context.Context, c *Campaign) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (
			user_id, name, url, tags, description, product_description,
			target_audience, rss_categories, rss_countries, update_schedule, update_hour
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, c.UserID, c.Name, c.URL, pq.Array(c.Tags), c.Description, c.ProductDescription,
		c.TargetAudience, pq.Array(c.RssCategories), pq.Array(c.RssCountries),
		c.UpdateSchedule, c.UpdateHour).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *CampaignStore) UpdateCampaign(ctx context.Context, c *Campaign) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE campaigns SET
			name = $2, url = $3, tags = $4, description = $5, product_description = $6,
			target_audience = $7, rss_categories = $8, rss_countries = $9,
			update_schedule = $10, update_hour = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.Name, c.URL, pq.Array(c.Tags), c.Description, c.ProductDescription,
		c.TargetAudience, pq.Array(c.RssCategories), pq.Array(c.RssCountries),
		c.UpdateSchedule, c.UpdateHour).Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound("Campaign not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

func (r *CampaignStore) DeleteCampaign(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "campaigns", id)
}
