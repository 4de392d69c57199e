package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
	"github.com/lysyi3m/adcomb/app/notify"
	"github.com/lysyi3m/adcomb/app/scrape"
)

const (
	ownerToken    = "owner-token"
	strangerToken = "stranger-token"
	adminToken    = "admin-token"
	schedulerKey  = "cron-secret"

	ownerID    = "0b6c7a52-3f1e-4d6a-9a51-2f8f1c1d0a01"
	strangerID = "0b6c7a52-3f1e-4d6a-9a51-2f8f1c1d0a02"
	adminID    = "0b6c7a52-3f1e-4d6a-9a51-2f8f1c1d0a03"
)

type stubCompleter struct {
	mu       sync.Mutex
	response string
}

func (s *stubCompleter) CompleteJSON(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response, nil
}

func (s *stubCompleter) set(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = response
}

type stubImages struct{}

func (stubImages) Run(_ context.Context, candidates []scrape.Candidate) []scrape.Candidate {
	return candidates
}

type stubArticle struct{}

func (stubArticle) Text(context.Context, string) string { return "Article text" }

type stubImageGen struct{}

func (stubImageGen) GenerateImage(context.Context, string) ([]byte, error) {
	return []byte("png"), nil
}

type stubImageStore struct{}

func (stubImageStore) SaveImage(context.Context, []byte) (string, error) {
	return "http://localhost:8080/media/1700000000-test.png", nil
}

type testEnv struct {
	store  *database.MemoryStore
	llm    *stubCompleter
	router *gin.Engine
	owner  *database.Profile
}

func newTestEnv(t *testing.T, ownerCredits int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := database.NewMemoryStore()
	owner := &database.Profile{ID: ownerID, Email: "owner@example.com", Credits: ownerCredits}
	profiles := []struct {
		profile *database.Profile
		token   string
	}{
		{owner, ownerToken},
		{&database.Profile{ID: strangerID, Credits: 5}, strangerToken},
		{&database.Profile{ID: adminID, Credits: 5, IsAdmin: true}, adminToken},
	}
	for _, p := range profiles {
		if err := store.CreateProfile(ctx, p.profile); err != nil {
			t.Fatalf("Failed to create profile: %v", err)
		}
		if err := store.CreateToken(ctx, p.profile.ID, HashToken(p.token)); err != nil {
			t.Fatalf("Failed to create token: %v", err)
		}
	}

	repos := store.Repositories()
	ledger := credits.NewLedger(repos.Profiles)
	llm := &stubCompleter{}
	fetcher := feed.NewFetcher(http.DefaultClient, feed.NewParser(), "test-agent", time.Second)
	aggregator := feed.NewAggregator(repos.Campaigns, repos.Feeds, fetcher)
	generator := content.NewGenerator(repos, ledger, aggregator, stubImages{}, llm, true)

	services := Services{
		Repos:        repos,
		Ledger:       ledger,
		Aggregator:   aggregator,
		Generator:    generator,
		Variants:     content.NewVariantGenerator(repos, ledger, llm),
		LandingPages: content.NewLandingPageGenerator(repos, stubArticle{}, llm),
		Images:       content.NewImageGenerator(repos, ledger, stubImageGen{}, stubImageStore{}),
		Suggester:    content.NewSuggester(repos.Feeds, ledger, stubArticle{}, llm),
		Updater:      content.NewScheduledUpdater(repos, generator, notify.Nop{}),
	}

	opts := ServerOptions{BaseURL: "http://localhost:8080", Version: "test", SchedulerAPIKey: schedulerKey}
	router := NewServer(NewHandler(services, opts), opts)

	return &testEnv{store: store, llm: llm, router: router, owner: owner}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) addCampaign(t *testing.T, userID string) *database.Campaign {
	t.Helper()
	campaign := &database.Campaign{UserID: userID, Name: "Smart Kettles", URL: "https://kettle.example", RssCategories: []string{"tech"}}
	if err := e.store.CreateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("Failed to create campaign: %v", err)
	}
	return campaign
}

func (e *testEnv) addItem(t *testing.T, campaignID string, item database.AiItem) database.AiItem {
	t.Helper()
	item.CampaignID = campaignID
	saved, err := e.store.InsertItems(context.Background(), []database.AiItem{item})
	if err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	return saved[0]
}

func (e *testEnv) credits(t *testing.T) int {
	t.Helper()
	profile, err := e.store.GetProfile(context.Background(), e.owner.ID)
	if err != nil || profile == nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	return profile.Credits
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}
