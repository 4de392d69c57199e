package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type LandingPageStore struct {
	db *DB
}

var _ LandingPageRepository = (*LandingPageStore)(nil)

func NewLandingPageRepository(db *DB) *LandingPageStore {
	return &LandingPageStore{db: db}
}

const landingPageColumns = `id, item_id, title, slug, active, view_count, sections, created_at, updated_at`

func scanLandingPage(row interface{ Scan(...any) error }) (*LandingPage, error) {
	var p LandingPage
	err := row.Scan(&p.ID, &p.ItemID, &p.Title, &p.Slug, &p.Active, &p.ViewCount, &p.Sections, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LandingPageStore) GetLandingPageByItem(ctx context.Context, itemID string) (*LandingPage, error) {
	return r.get(ctx, `SELECT `+landingPageColumns+` FROM landing_pages WHERE item_id = $1`, itemID)
}

func (r *LandingPageStore) GetLandingPageBySlug(ctx context.Context, slug string) (*LandingPage, error) {
	return r.get(ctx, `SELECT `+landingPageColumns+` FROM landing_pages WHERE slug = $1`, slug)
}

func (r *LandingPageStore) get(ctx context.Context, query string, arg string) (*LandingPage, error) {
	p, err := scanLandingPage(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get landing page: %w", err)
	}
	return p, nil
}

func (r *LandingPageStore) CreateLandingPage(ctx context.Context, p *LandingPage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO landing_pages (item_id, title, slug, active, sections)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, view_count, created_at, updated_at
	`, p.ItemID, p.Title, p.Slug, p.Active, p.Sections).Scan(&p.ID, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("A landing page already exists for this content item")
	}
	if err != nil {
		return fmt.Errorf("failed to create landing page: %w", err)
	}
	return nil
}

func (r *LandingPageStore) IncrementViews(ctx context.Context, id string) (int, error) {
	var views int
	err := r.db.QueryRowContext(ctx, `
		UPDATE landing_pages SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count
	`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, apperr.NotFound("Landing page not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

func (r *LandingPageStore) DeleteLandingPage(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "landing_pages", id)
}
