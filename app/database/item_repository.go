package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type ItemStore struct {
	db *DB
}

var _ ItemRepository = (*ItemStore)(nil)

func NewItemRepository(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, campaign_id, headline, source_link, clickbait, relevance_score,
	trend, description, tooltip, ad_placement, tags, keywords, image_url,
	original_image_url, image_prompt, published, variant_count, favorite_count,
	created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*AiItem, error) {
	var item AiItem
	err := row.Scan(
		&item.ID, &item.CampaignID, &item.Headline, &item.SourceLink, &item.Clickbait,
		&item.RelevanceScore, &item.Trend, &item.Description, &item.Tooltip,
		&item.AdPlacement, pq.Array(&item.Tags), pq.Array(&item.Keywords),
		&item.ImageURL, &item.OriginalImageURL, &item.ImagePrompt, &item.Published,
		&item.VariantCount, &item.FavoriteCount, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItems stores all items in one transaction and returns them with
// their assigned ids. Items always start unpublished.
func (r *ItemStore) InsertItems(ctx context.Context, items []AiItem) ([]AiItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ai_generated_items (
			campaign_id, headline, source_link, clickbait, relevance_score, trend,
			description, tooltip, ad_placement, tags, keywords, image_url,
			original_image_url, image_prompt, published
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, false)
		RETURNING `+itemColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	saved := make([]AiItem, 0, len(items))
	for _, item := range items {
		row := stmt.QueryRowContext(ctx,
			item.CampaignID, item.Headline, item.SourceLink, item.Clickbait,
			item.RelevanceScore, item.Trend, item.Description, item.Tooltip,
			item.AdPlacement, pq.Array(nonNil(item.Tags)), pq.Array(nonNil(item.Keywords)),
			item.ImageURL, item.OriginalImageURL, item.ImagePrompt)

		stored, err := scanItem(row)
		if err != nil {
			return nil, fmt.Errorf("failed to insert item: %w", err)
		}
		saved = append(saved, *stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit items: %w", err)
	}

	return saved, nil
}

func (r *ItemStore) ExistingLinks(ctx context.Context, campaignID string, links []string) ([]string, error) {
	if len(links) == 0 {
		return []string{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT source_link FROM ai_generated_items
		WHERE campaign_id = $1 AND source_link = ANY($2)
	`, campaignID, pq.Array(links))
	if err != nil {
		return nil, fmt.Errorf("failed to check existing links: %w", err)
	}
	defer rows.Close()

	existing := []string{}
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		existing = append(existing, link)
	}

	return existing, rows.Err()
}

func (r *ItemStore) GetItem(ctx context.Context, id string) (*AiItem, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ai_generated_items WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (r *ItemStore) QueryItems(ctx context.Context, q ItemQuery) ([]AiItem, int, error) {
	where, args := itemFilter(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_generated_items WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM ai_generated_items WHERE ` + where + ` ORDER BY ` + itemOrder(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []AiItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, total, nil
}

func itemFilter(q ItemQuery) (string, []any) {
	conditions := []string{"campaign_id = $1"}
	args := []any{q.CampaignID}

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	switch q.Status {
	case StatusPublished:
		conditions = append(conditions, "published = true")
	case StatusDraft:
		conditions = append(conditions, "published = false")
	}
	if q.MinScore != nil {
		add("relevance_score >= $%d", *q.MinScore)
	}
	if q.MaxScore != nil {
		add("relevance_score <= $%d", *q.MaxScore)
	}
	if q.From != nil {
		add("created_at >= $%d", *q.From)
	}
	if q.To != nil {
		add("created_at <= $%d", *q.To)
	}

	return strings.Join(conditions, " AND "), args
}

func itemOrder(sort string) string {
	switch sort {
	case SortOldest:
		return "created_at ASC, id"
	case SortScore:
		return "relevance_score DESC, created_at DESC, id"
	default:
		return "created_at DESC, id"
	}
}

func (r *ItemStore) SetPublished(ctx context.Context, id string, published bool) (*AiItem, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `
		UPDATE ai_generated_items SET published = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns, id, published))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

func (r *ItemStore) UpdateImage(ctx context.Context, id, imageURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ai_generated_items SET image_url = $2, updated_at = NOW() WHERE id = $1
	`, id, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update item image: %w", err)
	}
	return nil
}

func (r *ItemStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "ai_generated_items", id)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
