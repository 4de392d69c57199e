package credits

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

type Balance struct {
	HasCredits bool `json:"has_credits"`
	Current    int  `json:"current_credits"`
}

type Deduction struct {
	Success   bool `json:"success"`
	Remaining int  `json:"remaining_credits"`
}

// Ledger reads and spends user credits. Spending is a single conditional
// decrement in the repository; there is no check-then-act.
type Ledger struct {
	profiles database.ProfileRepository
}

func NewLedger(profiles database.ProfileRepository) *Ledger {
	return &Ledger{profiles: profiles}
}

func (l *Ledger) Check(ctx context.Context, userID string) (Balance, error) {
	profile, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return Balance{}, apperr.NotFound("User profile not found")
	}

	return Balance{HasCredits: profile.Credits > 0, Current: profile.Credits}, nil
}

// Deduct takes one credit. With a zero balance it reports Success=false and
// leaves the balance untouched.
func (l *Ledger) Deduct(ctx context.Context, userID string) (Deduction, error) {
	remaining, ok, err := l.profiles.DecrementCredit(ctx, userID)
	if err != nil {
		return Deduction{}, fmt.Errorf("failed to deduct credit: %w", err)
	}

	if !ok {
		slog.Info("Credit deduction refused", "user", userID, "credits", remaining)
		return Deduction{Success: false, Remaining: remaining}, nil
	}

	slog.Debug("Credit deducted", "user", userID, "remaining", remaining)

	return Deduction{Success: true, Remaining: remaining}, nil
}

// Require fails with an insufficient credits error unless the user has at
// least one credit.
func (l *Ledger) Require(ctx context.Context, userID string) (Balance, error) {
	balance, err := l.Check(ctx, userID)
	if err != nil {
		return balance, err
	}
	if !balance.HasCredits {
		return balance, apperr.InsufficientCredits()
	}
	return balance, nil
}

// Spend deducts one credit and fails with an insufficient credits error when
// none was available.
func (l *Ledger) Spend(ctx context.Context, userID string) (int, error) {
	deduction, err := l.Deduct(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !deduction.Success {
		return deduction.Remaining, apperr.InsufficientCredits()
	}
	return deduction.Remaining, nil
}

// Refund returns a credit taken by Spend when the paid work could not be
// completed. Failures are logged and reported but leave the caller's error
// untouched.
func (l *Ledger) Refund(ctx context.Context, userID string) (int, error) {
	balance, err := l.profiles.IncrementCredit(ctx, userID)
	if err != nil {
		slog.Error("Failed to refund credit", "user", userID, "error", err)
		return 0, fmt.Errorf("failed to refund credit: %w", err)
	}

	slog.Info("Credit refunded", "user", userID, "credits", balance)

	return balance, nil
}
