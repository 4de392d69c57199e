package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
	"github.com/lysyi3m/adcomb/app/scrape"
)

const (
	ownerID    = "user-1"
	strangerID = "user-2"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, nil
}

type fakeNews struct {
	result *feed.Result
	err    error
}

func (f *fakeNews) LatestFor(context.Context, *database.Campaign) (*feed.Result, error) {
	return f.result, f.err
}

type fakeImages struct {
	byLink map[string]string
}

func (f *fakeImages) Run(_ context.Context, candidates []scrape.Candidate) []scrape.Candidate {
	out := make([]scrape.Candidate, len(candidates))
	for i, c := range candidates {
		c.ExtractedImageURL = f.byLink[c.Link]
		out[i] = c
	}
	return out
}

type fakeArticle struct {
	text string
	urls []string
}

func (f *fakeArticle) Text(_ context.Context, pageURL string) string {
	f.urls = append(f.urls, pageURL)
	return f.text
}

type fakeImageGen struct {
	data    []byte
	err     error
	prompts []string
}

func (f *fakeImageGen) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	f.prompts = append(f.prompts, prompt)
	return f.data, f.err
}

type fakeImageStore struct {
	saved [][]byte
	err   error
}

func (f *fakeImageStore) SaveImage(_ context.Context, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, data)
	return "http://localhost:8080/media/1700000000-test.png", nil
}

type fixture struct {
	store    *database.MemoryStore
	repos    *database.Repositories
	ledger   *credits.Ledger
	campaign *database.Campaign
}

func newFixture(t *testing.T, startCredits int) *fixture {
	t.Helper()
	ctx := context.Background()

	store := database.NewMemoryStore()
	if err := store.CreateProfile(ctx, &database.Profile{ID: ownerID, Credits: startCredits}); err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	if err := store.CreateProfile(ctx, &database.Profile{ID: strangerID, Credits: 10}); err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	campaign := &database.Campaign{
		UserID:             ownerID,
		Name:               "Smart Kettles",
		URL:                "https://kettle.example",
		ProductDescription: "A wifi kettle",
		RssCategories:      []string{"tech"},
		RssCountries:       []string{"de"},
	}
	if err := store.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("Failed to create campaign: %v", err)
	}

	return &fixture{store: store, repos: store.Repositories(), ledger: credits.NewLedger(store), campaign: campaign}
}

func (f *fixture) addItem(t *testing.T, item database.AiItem) database.AiItem {
	t.Helper()
	item.CampaignID = f.campaign.ID
	saved, err := f.store.InsertItems(context.Background(), []database.AiItem{item})
	if err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	return saved[0]
}

func (f *fixture) balance(t *testing.T) int {
	t.Helper()
	profile, err := f.store.GetProfile(context.Background(), ownerID)
	if err != nil || profile == nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	return profile.Credits
}

func newsResult(now time.Time) *feed.Result {
	return &feed.Result{
		Items: []feed.Item{
			{Title: "Kettles go smart", Link: "https://news.example/kettles", Description: "A story", PublishedAt: now.Add(-time.Hour), SourceName: "Tech Daily", ImageURL: "https://news.example/rss.jpg"},
			{Title: "Tea prices", Link: "https://news.example/tea", Description: "Another story", PublishedAt: now.Add(-2 * time.Hour), SourceName: "Tech Daily"},
		},
		FeedsTotal:     2,
		FeedsSucceeded: 1,
		FeedsFailed:    1,
	}
}
