package content

import (
	"context"
	"testing"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

const variantResponse = `{
  "variants": [
    {"headline": "Boil faster", "body": "In half the time", "cta": "Try it", "tone": "urgent", "focus": "speed", "headline_en": "Boil faster", "body_en": "In half the time"},
    {"headline": "Tea, perfected", "body": "Exact temperatures", "cta": "Discover", "focus": "quality"},
    {"headline": "Extra", "body": "Should be trimmed", "cta": "More"}
  ]
}`

// deletingCompleter removes the item while the model is answering.
type deletingCompleter struct {
	fakeCompleter
	store  *database.MemoryStore
	itemID string
}

func (d *deletingCompleter) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	if _, err := d.store.DeleteItem(ctx, d.itemID); err != nil {
		return "", err
	}
	return d.fakeCompleter.CompleteJSON(ctx, prompt)
}

func TestGenerateVariants(t *testing.T) {
	f := newFixture(t, 2)
	item := f.addItem(t, database.AiItem{Headline: "Kettles go smart", AdPlacement: database.AdPlacement{Headline: "Boil smarter"}})
	llm := &fakeCompleter{responses: []string{variantResponse}}
	g := NewVariantGenerator(f.repos, f.ledger, llm)

	result, err := g.Generate(context.Background(), ownerID, item.ID, ai.VariantOptions{Count: 2, Tone: "friendly"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(result.Variants) != 2 {
		t.Fatalf("Expected 2 variants, got: %d", len(result.Variants))
	}
	if result.Variants[0].DisplayOrder != 1 || result.Variants[1].DisplayOrder != 2 {
		t.Errorf("Expected display order 1 and 2, got: %d and %d", result.Variants[0].DisplayOrder, result.Variants[1].DisplayOrder)
	}
	if result.Variants[1].Tone != "friendly" {
		t.Errorf("Expected requested tone as fallback, got: %s", result.Variants[1].Tone)
	}
	if result.RemainingCredits != 1 || f.balance(t) != 1 {
		t.Errorf("Expected one credit spent, got remaining: %d", result.RemainingCredits)
	}

	saved, _ := f.store.GetItem(context.Background(), item.ID)
	if saved.VariantCount != 2 {
		t.Errorf("Expected variant_count 2, got: %d", saved.VariantCount)
	}
}

func TestGenerateVariantsErrors(t *testing.T) {
	t.Run("no credits", func(t *testing.T) {
		f := newFixture(t, 0)
		item := f.addItem(t, database.AiItem{Headline: "A"})
		llm := &fakeCompleter{responses: []string{variantResponse}}

		_, err := NewVariantGenerator(f.repos, f.ledger, llm).Generate(context.Background(), ownerID, item.ID, ai.VariantOptions{Count: 1})
		if !apperr.Is(err, apperr.KindInsufficientCredits) {
			t.Errorf("Expected insufficient credits error, got: %v", err)
		}
		if len(llm.prompts) != 0 {
			t.Error("Expected no LLM call without credits")
		}
	})

	t.Run("not owner", func(t *testing.T) {
		f := newFixture(t, 5)
		item := f.addItem(t, database.AiItem{Headline: "A"})

		_, err := NewVariantGenerator(f.repos, f.ledger, &fakeCompleter{}).Generate(context.Background(), strangerID, item.ID, ai.VariantOptions{Count: 1})
		if !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("Expected forbidden error, got: %v", err)
		}
	})

	t.Run("missing item", func(t *testing.T) {
		f := newFixture(t, 5)

		_, err := NewVariantGenerator(f.repos, f.ledger, &fakeCompleter{}).Generate(context.Background(), ownerID, "missing", ai.VariantOptions{Count: 1})
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found error, got: %v", err)
		}
	})

	t.Run("count out of range", func(t *testing.T) {
		f := newFixture(t, 5)
		item := f.addItem(t, database.AiItem{Headline: "A"})

		_, err := NewVariantGenerator(f.repos, f.ledger, &fakeCompleter{}).Generate(context.Background(), ownerID, item.ID, ai.VariantOptions{Count: 11})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Expected validation error, got: %v", err)
		}
	})

	t.Run("invalid output keeps credits", func(t *testing.T) {
		f := newFixture(t, 5)
		item := f.addItem(t, database.AiItem{Headline: "A"})
		llm := &fakeCompleter{responses: []string{`{"variants": []}`}}

		_, err := NewVariantGenerator(f.repos, f.ledger, llm).Generate(context.Background(), ownerID, item.ID, ai.VariantOptions{Count: 1})
		if !apperr.Is(err, apperr.KindParse) {
			t.Errorf("Expected parse error, got: %v", err)
		}
		if f.balance(t) != 5 {
			t.Errorf("Expected credits unchanged, got: %d", f.balance(t))
		}
	})

	t.Run("save failure refunds credit", func(t *testing.T) {
		f := newFixture(t, 3)
		item := f.addItem(t, database.AiItem{Headline: "A"})
		llm := &deletingCompleter{fakeCompleter: fakeCompleter{responses: []string{variantResponse}}, store: f.store, itemID: item.ID}

		_, err := NewVariantGenerator(f.repos, f.ledger, llm).Generate(context.Background(), ownerID, item.ID, ai.VariantOptions{Count: 1})
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found error from save, got: %v", err)
		}
		if f.balance(t) != 3 {
			t.Errorf("Expected credits unchanged, got: %d", f.balance(t))
		}
	})
}

func TestPatchAndDeleteVariants(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	item := f.addItem(t, database.AiItem{Headline: "A"})

	variants, err := f.store.AddVariants(ctx, item.ID, []database.AdVariant{
		{Headline: "One", Body: "First"},
		{Headline: "Two", Body: "Second"},
	})
	if err != nil {
		t.Fatalf("Failed to add variants: %v", err)
	}

	g := NewVariantGenerator(f.repos, f.ledger, &fakeCompleter{})

	favorite := true
	headline := "One, improved"
	patched, err := g.Patch(ctx, ownerID, variants[0].ID, VariantPatch{Headline: &headline, Favorite: &favorite})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if patched.Headline != "One, improved" || !patched.Favorite || patched.Body != "First" {
		t.Errorf("Expected patched headline and favorite only, got: %+v", patched)
	}

	empty := "  "
	if _, err := g.Patch(ctx, ownerID, variants[0].ID, VariantPatch{Headline: &empty}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for empty headline, got: %v", err)
	}

	if _, err := g.Delete(ctx, strangerID, variants[1].ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Expected forbidden error, got: %v", err)
	}

	if _, err := g.Delete(ctx, ownerID, variants[1].ID); err != nil {
		t.Fatalf("Expected no error deleting one of two variants, got: %v", err)
	}

	remaining, _ := g.List(ctx, ownerID, item.ID)
	if len(remaining) != 1 || remaining[0].ID != variants[0].ID || remaining[0].Headline != "One, improved" {
		t.Errorf("Expected the other variant untouched, got: %+v", remaining)
	}

	if _, err := g.Delete(ctx, ownerID, variants[0].ID); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Expected validation error deleting the last variant, got: %v", err)
	}

	if _, err := g.Delete(ctx, ownerID, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found error, got: %v", err)
	}
}
