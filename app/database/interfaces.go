package database

import (
	"context"
	"time"
)

// Lookups return a nil record and a nil error when nothing matches.

type CampaignRepository interface {
	ListCampaigns(ctx context.Context, userID string) ([]Campaign, error)
	ListScheduledCampaigns(ctx context.Context, userID string) ([]Campaign, error)
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	CreateCampaign(ctx context.Context, campaign *Campaign) error
	UpdateCampaign(ctx context.Context, campaign *Campaign) error
	DeleteCampaign(ctx context.Context, id string) (bool, error)
}

type FeedRepository interface {
	ListFeeds(ctx context.Context) ([]RssFeed, error)
	ListActiveFeedsByCategories(ctx context.Context, categories []string) ([]RssFeed, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetFeed(ctx context.Context, id string) (*RssFeed, error)
	CreateFeed(ctx context.Context, feed *RssFeed) error
	UpdateFeed(ctx context.Context, feed *RssFeed) error
	UpsertFeedByURL(ctx context.Context, feed *RssFeed) error
	DeleteFeed(ctx context.Context, id string) (bool, error)
}

const (
	StatusAll       = "all"
	StatusPublished = "published"
	StatusDraft     = "draft"

	SortNewest = "newest"
	SortOldest = "oldest"
	SortScore  = "score"
)

type ItemQuery struct {
	CampaignID string
	Status     string
	MinScore   *int
	MaxScore   *int
	From       *time.Time
	To         *time.Time
	Sort       string
	Limit      int
	Offset     int
}

type ItemRepository interface {
	InsertItems(ctx context.Context, items []AiItem) ([]AiItem, error)
	ExistingLinks(ctx context.Context, campaignID string, links []string) ([]string, error)
	GetItem(ctx context.Context, id string) (*AiItem, error)
	QueryItems(ctx context.Context, query ItemQuery) ([]AiItem, int, error)
	SetPublished(ctx context.Context, id string, published bool) (*AiItem, error)
	UpdateImage(ctx context.Context, id, imageURL string) error
	DeleteItem(ctx context.Context, id string) (bool, error)
}

type VariantRepository interface {
	ListVariants(ctx context.Context, itemID string) ([]AdVariant, error)
	GetVariant(ctx context.Context, id string) (*AdVariant, error)
	// AddVariants appends variants after the item's existing ones and bumps
	// its variant_count in one transaction.
	AddVariants(ctx context.Context, itemID string, variants []AdVariant) ([]AdVariant, error)
	UpdateVariant(ctx context.Context, variant *AdVariant) error
	// DeleteVariant fails with a validation error when it is the item's last
	// variant.
	DeleteVariant(ctx context.Context, id string) error
}

type LandingPageRepository interface {
	GetLandingPageByItem(ctx context.Context, itemID string) (*LandingPage, error)
	GetLandingPageBySlug(ctx context.Context, slug string) (*LandingPage, error)
	// CreateLandingPage fails with a conflict error when the item already
	// has a page.
	CreateLandingPage(ctx context.Context, page *LandingPage) error
	IncrementViews(ctx context.Context, id string) (int, error)
	DeleteLandingPage(ctx context.Context, id string) (bool, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	// DecrementCredit atomically takes one credit when the balance is
	// positive and reports the remaining balance.
	DecrementCredit(ctx context.Context, id string) (int, bool, error)
	// IncrementCredit returns one credit and reports the new balance.
	IncrementCredit(ctx context.Context, id string) (int, error)
	UserIDForTokenHash(ctx context.Context, tokenHash string) (string, error)
	CreateProfile(ctx context.Context, profile *Profile) error
	CreateToken(ctx context.Context, userID, tokenHash string) error
}

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Campaigns    CampaignRepository
	Feeds        FeedRepository
	Items        ItemRepository
	Variants     VariantRepository
	LandingPages LandingPageRepository
	Profiles     ProfileRepository
}

func NewPostgresRepositories(db *DB) *Repositories {
	return &Repositories{
		Campaigns:    NewCampaignRepository(db),
		Feeds:        NewFeedRepository(db),
		Items:        NewItemRepository(db),
		Variants:     NewVariantRepository(db),
		LandingPages: NewLandingPageRepository(db),
		Profiles:     NewProfileRepository(db),
	}
}
