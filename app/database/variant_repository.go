package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type VariantStore struct {
	db *DB
}

var _ VariantRepository = (*VariantStore)(nil)

func NewVariantRepository(db *DB) *VariantStore {
	return &VariantStore{db: db}
}

const variantColumns = `id, item_id, display_order, headline, body, cta, headline_en, body_en,
	image_url, image_prompt, tone, focus, favorite, created_at, updated_at`

func scanVariant(row interface{ Scan(...any) error }) (*AdVariant, error) {
	var v AdVariant
	err := row.Scan(
		&v.ID, &v.ItemID, &v.DisplayOrder, &v.Headline, &v.Body, &v.CTA,
		&v.HeadlineEn, &v.BodyEn, &v.ImageURL, &v.ImagePrompt, &v.Tone, &v.Focus,
		&v.Favorite, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VariantStore) ListVariants(ctx context.Context, itemID string) ([]AdVariant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+variantColumns+` FROM ad_variants
		WHERE item_id = $1 ORDER BY display_order`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	variants := []AdVariant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant row: %w", err)
		}
		variants = append(variants, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant rows: %w", err)
	}

	return variants, nil
}

func (r *VariantStore) GetVariant(ctx context.Context, id string) (*AdVariant, error) {
	v, err := scanVariant(r.db.QueryRowContext(ctx, `SELECT `+variantColumns+` FROM ad_variants WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return v, nil
}

func (r *VariantStore) AddVariants(ctx context.Context, itemID string, variants []AdVariant) ([]AdVariant, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Locks the parent row so concurrent requests get distinct display orders.
	var count int
	err = tx.QueryRowContext(ctx, `
		UPDATE ai_generated_items
		SET variant_count = variant_count + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING variant_count
	`, itemID, len(variants)).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("Content item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update variant count: %w", err)
	}

	var nextOrder int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(display_order), 0) + 1 FROM ad_variants WHERE item_id = $1
	`, itemID).Scan(&nextOrder); err != nil {
		return nil, fmt.Errorf("failed to get display order: %w", err)
	}

	saved := make([]AdVariant, 0, len(variants))
	for i, v := range variants {
		stored, err := scanVariant(tx.QueryRowContext(ctx, `
			INSERT INTO ad_variants (
				item_id, display_order, headline, body, cta, headline_en, body_en,
				image_url, image_prompt, tone, focus, favorite
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING `+variantColumns,
			itemID, nextOrder+i, v.Headline, v.Body, v.CTA, v.HeadlineEn, v.BodyEn,
			v.ImageURL, v.ImagePrompt, v.Tone, v.Focus, v.Favorite))
		if err != nil {
			return nil, fmt.Errorf("failed to insert variant: %w", err)
		}
		saved = append(saved, *stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit variants: %w", err)
	}

	return saved, nil
}

func (r *VariantStore) UpdateVariant(ctx context.Context, v *AdVariant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var wasFavorite bool
	err = tx.QueryRowContext(ctx, `SELECT favorite FROM ad_variants WHERE id = $1 FOR UPDATE`, v.ID).Scan(&wasFavorite)
	if err == sql.ErrNoRows {
		return apperr.NotFound("Variant not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock variant: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE ad_variants SET
			headline = $2, body = $3, cta = $4, headline_en = $5, body_en = $6,
			image_url = $7, image_prompt = $8, tone = $9, focus = $10, favorite = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, v.ID, v.Headline, v.Body, v.CTA, v.HeadlineEn, v.BodyEn, v.ImageURL,
		v.ImagePrompt, v.Tone, v.Focus, v.Favorite).Scan(&v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}

	if wasFavorite != v.Favorite {
		delta := 1
		if !v.Favorite {
			delta = -1
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ai_generated_items
			SET favorite_count = GREATEST(favorite_count + $2, 0), updated_at = NOW()
			WHERE id = $1
		`, v.ItemID, delta); err != nil {
			return fmt.Errorf("failed to update favorite count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variant: %w", err)
	}

	return nil
}

func (r *VariantStore) DeleteVariant(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID string
	var favorite bool
	err = tx.QueryRowContext(ctx, `SELECT item_id, favorite FROM ad_variants WHERE id = $1`, id).Scan(&itemID, &favorite)
	if err == sql.ErrNoRows {
		return apperr.NotFound("Variant not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get variant: %w", err)
	}

	favoriteDelta := 0
	if favorite {
		favoriteDelta = 1
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE ai_generated_items
		SET variant_count = variant_count - 1,
		    favorite_count = GREATEST(favorite_count - $2, 0),
		    updated_at = NOW()
		WHERE id = $1 AND variant_count > 1
	`, itemID, favoriteDelta)
	if err != nil {
		return fmt.Errorf("failed to update variant count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.Validation("Cannot delete the last remaining variant")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ad_variants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variant deletion: %w", err)
	}

	return nil
}
