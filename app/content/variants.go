package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
)

type VariantResult struct {
	Success          bool                 `json:"success"`
	Variants         []database.AdVariant `json:"variants"`
	RemainingCredits int                  `json:"remaining_credits"`
}

// VariantPatch carries the fields a user may change on a variant. Nil fields
// are left untouched.
type VariantPatch struct {
	Headline *string `json:"headline"`
	Body     *string `json:"body"`
	CTA      *string `json:"cta"`
	Tone     *string `json:"tone"`
	Focus    *string `json:"focus"`
	Favorite *bool   `json:"favorite"`
}

type VariantGenerator struct {
	owned    Owned
	variants database.VariantRepository
	ledger   *credits.Ledger
	llm      ai.Completer
}

func NewVariantGenerator(repos *database.Repositories, ledger *credits.Ledger, llm ai.Completer) *VariantGenerator {
	return &VariantGenerator{
		owned:    Owned{Campaigns: repos.Campaigns, Items: repos.Items},
		variants: repos.Variants,
		ledger:   ledger,
		llm:      llm,
	}
}

// Generate asks the LLM for new variants of an item's ad copy. One credit is
// spent per request once the model output has been validated, and returned
// if the variants cannot be saved.
func (g *VariantGenerator) Generate(ctx context.Context, userID, itemID string, opts ai.VariantOptions) (*VariantResult, error) {
	if opts.Count < ai.MinVariants || opts.Count > ai.MaxVariants {
		return nil, apperr.Newf(apperr.KindValidation, "count must be between %d and %d", ai.MinVariants, ai.MaxVariants)
	}

	item, campaign, err := g.owned.Item(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if _, err := g.ledger.Require(ctx, userID); err != nil {
		return nil, err
	}

	prompt := ai.BuildVariantPrompt(ai.VariantSource{
		Headline:    item.Headline,
		Description: item.Description,
		AdPlacement: adCopy(item.AdPlacement),
	}, campaignInfo(campaign), opts)

	raw, err := g.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	response, err := ai.DecodeWithPolicy(raw, ai.PolicyFail, ai.ValidateVariants, nil)
	if err != nil {
		return nil, err
	}

	copies := response.Variants
	if len(copies) > opts.Count {
		copies = copies[:opts.Count]
	}

	remaining, err := g.ledger.Spend(ctx, userID)
	if err != nil {
		return nil, err
	}

	saved, err := g.variants.AddVariants(ctx, item.ID, lo.Map(copies, func(v ai.VariantCopy, _ int) database.AdVariant {
		tone := v.Tone
		if tone == "" {
			tone = opts.Tone
		}
		return database.AdVariant{
			Headline:    strings.TrimSpace(v.Headline),
			Body:        strings.TrimSpace(v.Body),
			CTA:         strings.TrimSpace(v.CTA),
			HeadlineEn:  v.HeadlineEn,
			BodyEn:      v.BodyEn,
			ImagePrompt: v.ImagePrompt,
			Tone:        tone,
			Focus:       v.Focus,
		}
	}))
	if err != nil {
		if _, refundErr := g.ledger.Refund(ctx, userID); refundErr != nil {
			err = errors.Join(err, refundErr)
		}
		return nil, fmt.Errorf("failed to save variants: %w", err)
	}

	slog.Info("Variants generated", "item", item.ID, "count", len(saved), "remaining_credits", remaining)

	return &VariantResult{Success: true, Variants: saved, RemainingCredits: remaining}, nil
}

func (g *VariantGenerator) List(ctx context.Context, userID, itemID string) ([]database.AdVariant, error) {
	if _, _, err := g.owned.Item(ctx, userID, itemID); err != nil {
		return nil, err
	}

	variants, err := g.variants.ListVariants(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return variants, nil
}

func (g *VariantGenerator) Patch(ctx context.Context, userID, variantID string, patch VariantPatch) (*database.AdVariant, error) {
	variant, err := g.ownedVariant(ctx, userID, variantID)
	if err != nil {
		return nil, err
	}

	if patch.Headline != nil {
		if strings.TrimSpace(*patch.Headline) == "" {
			return nil, apperr.Validation("headline cannot be empty")
		}
		variant.Headline = strings.TrimSpace(*patch.Headline)
	}
	if patch.Body != nil {
		if strings.TrimSpace(*patch.Body) == "" {
			return nil, apperr.Validation("body cannot be empty")
		}
		variant.Body = strings.TrimSpace(*patch.Body)
	}
	if patch.CTA != nil {
		variant.CTA = strings.TrimSpace(*patch.CTA)
	}
	if patch.Tone != nil {
		variant.Tone = *patch.Tone
	}
	if patch.Focus != nil {
		variant.Focus = *patch.Focus
	}
	if patch.Favorite != nil {
		variant.Favorite = *patch.Favorite
	}

	if err := g.variants.UpdateVariant(ctx, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// Delete removes a variant. The last remaining variant of an item is
// rejected with a validation error.
func (g *VariantGenerator) Delete(ctx context.Context, userID, variantID string) (*database.AdVariant, error) {
	variant, err := g.ownedVariant(ctx, userID, variantID)
	if err != nil {
		return nil, err
	}

	if err := g.variants.DeleteVariant(ctx, variant.ID); err != nil {
		return nil, err
	}

	slog.Info("Variant deleted", "variant", variant.ID, "item", variant.ItemID)

	return variant, nil
}

func (g *VariantGenerator) ownedVariant(ctx context.Context, userID, variantID string) (*database.AdVariant, error) {
	variant, err := g.variants.GetVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variant: %w", err)
	}
	if variant == nil {
		return nil, apperr.NotFound("Variant not found")
	}

	if _, _, err := g.owned.Item(ctx, userID, variant.ItemID); err != nil {
		return nil, err
	}
	return variant, nil
}
