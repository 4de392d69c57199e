package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
)

type SuggestionResult struct {
	ai.SuggestionResponse
	RemainingCredits int `json:"remaining_credits"`
}

// Suggester analyzes a product page and proposes campaign settings.
type Suggester struct {
	feeds   database.FeedRepository
	ledger  *credits.Ledger
	article ArticleTexter
	llm     ai.Completer
}

func NewSuggester(feeds database.FeedRepository, ledger *credits.Ledger, article ArticleTexter, llm ai.Completer) *Suggester {
	return &Suggester{feeds: feeds, ledger: ledger, article: article, llm: llm}
}

// Suggest never fails on unusable model output: the result then carries
// success=false and empty fields, and no credit is spent.
func (s *Suggester) Suggest(ctx context.Context, userID, pageURL string) (*SuggestionResult, error) {
	pageURL = strings.TrimSpace(pageURL)
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperr.Validation("url must be an absolute http(s) URL")
	}

	balance, err := s.ledger.Require(ctx, userID)
	if err != nil {
		return nil, err
	}

	categories, err := s.feeds.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed categories: %w", err)
	}

	pageText := s.article.Text(ctx, pageURL)

	raw, err := s.llm.CompleteJSON(ctx, ai.BuildSuggestionPrompt(pageURL, pageText, categories))
	if err != nil {
		return nil, err
	}

	suggestion, err := ai.DecodeWithPolicy(raw, ai.PolicyFallback, ai.ValidateSuggestion, ai.EmptySuggestion)
	if err != nil {
		return nil, err
	}

	result := &SuggestionResult{SuggestionResponse: suggestion, RemainingCredits: balance.Current}
	if !suggestion.Success {
		return result, nil
	}

	if len(categories) > 0 {
		result.RssCategories = lo.Intersect(categories, lo.Map(result.RssCategories, func(c string, _ int) string {
			return strings.ToLower(strings.TrimSpace(c))
		}))
	}

	remaining, err := s.ledger.Spend(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.RemainingCredits = remaining

	slog.Info("Campaign suggestions generated", "url", pageURL, "tags", len(result.SuggestedTags), "categories", len(result.RssCategories))

	return result, nil
}
