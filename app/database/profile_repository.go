package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lysyi3m/adcomb/app/apperr"
)

type ProfileStore struct {
	db *DB
}

var _ ProfileRepository = (*ProfileStore)(nil)

func NewProfileRepository(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (r *ProfileStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	var chatID sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, credits, is_admin, telegram_chat_id, created_at
		FROM user_profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.Credits, &p.IsAdmin, &chatID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.TelegramChatID = chatID.Int64
	return &p, nil
}

// DecrementCredit is a single conditional update, so concurrent callers can
// never take more credits than the balance holds.
func (r *ProfileStore) DecrementCredit(ctx context.Context, id string) (int, bool, error) {
	var remaining int
	err := r.db.QueryRowContext(ctx, `
		UPDATE user_profiles
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0
		RETURNING credits
	`, id).Scan(&remaining)
	if err == sql.ErrNoRows {
		var current int
		err := r.db.QueryRowContext(ctx, `SELECT credits FROM user_profiles WHERE id = $1`, id).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return 0, false, fmt.Errorf("failed to read credits: %w", err)
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to deduct credit: %w", err)
	}
	return remaining, true, nil
}

func (r *ProfileStore) IncrementCredit(ctx context.Context, id string) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx, `
		UPDATE user_profiles
		SET credits = credits + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING credits
	`, id).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, apperr.NotFound("User profile not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to refund credit: %w", err)
	}
	return balance, nil
}

func (r *ProfileStore) UserIDForTokenHash(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_tokens WHERE token_hash = $1`, tokenHash).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return userID, nil
}

func (r *ProfileStore) CreateProfile(ctx context.Context, p *Profile) error {
	var chatID sql.NullInt64
	if p.TelegramChatID != 0 {
		chatID = sql.NullInt64{Int64: p.TelegramChatID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (email, credits, is_admin, telegram_chat_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.Email, p.Credits, p.IsAdmin, chatID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileStore) CreateToken(ctx context.Context, userID, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_tokens (token_hash, user_id) VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING
	`, tokenHash, userID)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}
