package database

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lysyi3m/adcomb/app/apperr"
)

// MemoryStore keeps every table in process memory. It backs --storage=memory
// and the handler tests. It enforces the same uniqueness, cascade and credit
// rules as the PostgreSQL schema.
type MemoryStore struct {
	mu sync.Mutex

	profiles     map[string]Profile
	tokens       map[string]string
	campaigns    map[string]Campaign
	feeds        map[string]RssFeed
	items        map[string]AiItem
	variants     map[string]AdVariant
	landingPages map[string]LandingPage

	now      func() time.Time
	lastTick time.Time
}

var (
	_ CampaignRepository    = (*MemoryStore)(nil)
	_ FeedRepository        = (*MemoryStore)(nil)
	_ ItemRepository        = (*MemoryStore)(nil)
	_ VariantRepository     = (*MemoryStore)(nil)
	_ LandingPageRepository = (*MemoryStore)(nil)
	_ ProfileRepository     = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     map[string]Profile{},
		tokens:       map[string]string{},
		campaigns:    map[string]Campaign{},
		feeds:        map[string]RssFeed{},
		items:        map[string]AiItem{},
		variants:     map[string]AdVariant{},
		landingPages: map[string]LandingPage{},
		now:          time.Now,
	}
}

func (s *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Campaigns:    s,
		Feeds:        s,
		Items:        s,
		Variants:     s,
		LandingPages: s,
		Profiles:     s,
	}
}

// Profiles

func (s *MemoryStore) GetProfile(_ context.Context, id string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) DecrementCredit(_ context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok || p.Credits <= 0 {
		return p.Credits, false, nil
	}
	p.Credits--
	s.profiles[id] = p
	return p.Credits, true, nil
}

func (s *MemoryStore) IncrementCredit(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return 0, apperr.NotFound("User profile not found")
	}
	p.Credits++
	s.profiles[id] = p
	return p.Credits, nil
}

func (s *MemoryStore) UserIDForTokenHash(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens[tokenHash], nil
}

func (s *MemoryStore) CreateProfile(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()
	s.profiles[p.ID] = *p
	return nil
}

func (s *MemoryStore) CreateToken(_ context.Context, userID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[tokenHash]; !exists {
		s.tokens[tokenHash] = userID
	}
	return nil
}

// Campaigns

func (s *MemoryStore) ListCampaigns(_ context.Context, userID string) ([]Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns := lo.Filter(lo.Values(s.campaigns), func(c Campaign, _ int) bool {
		return c.UserID == userID
	})
	slices.SortFunc(campaigns, func(a, b Campaign) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return campaigns, nil
}

func (s *MemoryStore) ListScheduledCampaigns(_ context.Context, userID string) ([]Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns := lo.Filter(lo.Values(s.campaigns), func(c Campaign, _ int) bool {
		return c.UserID == userID && c.UpdateSchedule
	})
	slices.SortFunc(campaigns, func(a, b Campaign) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return campaigns, nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id string) (*Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) CreateCampaign(_ context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.campaigns[c.ID] = *c
	return nil
}

func (s *MemoryStore) UpdateCampaign(_ context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.campaigns[c.ID]
	if !ok {
		return apperr.NotFound("Campaign not found")
	}
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.campaigns[c.ID] = *c
	return nil
}

func (s *MemoryStore) DeleteCampaign(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return false, nil
	}
	delete(s.campaigns, id)
	for itemID, item := range s.items {
		if item.CampaignID == id {
			s.deleteItemLocked(itemID)
		}
	}
	return true, nil
}

// Feeds

func (s *MemoryStore) ListFeeds(_ context.Context) ([]RssFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feeds := lo.Values(s.feeds)
	slices.SortFunc(feeds, func(a, b RssFeed) int { return cmp.Compare(a.Name, b.Name) })
	return feeds, nil
}

func (s *MemoryStore) ListActiveFeedsByCategories(_ context.Context, categories []string) ([]RssFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feeds := lo.Filter(lo.Values(s.feeds), func(f RssFeed, _ int) bool {
		return f.Active && len(lo.Intersect(f.Categories, categories)) > 0
	})
	slices.SortFunc(feeds, func(a, b RssFeed) int { return cmp.Compare(a.Name, b.Name) })
	return feeds, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categories []string
	for _, f := range s.feeds {
		if f.Active {
			categories = append(categories, f.Categories...)
		}
	}
	categories = lo.Uniq(categories)
	slices.Sort(categories)
	return append([]string{}, categories...), nil
}

func (s *MemoryStore) GetFeed(_ context.Context, id string) (*RssFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feeds[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (s *MemoryStore) CreateFeed(_ context.Context, f *RssFeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.feedByURLLocked(f.URL); taken {
		return apperr.Conflict("A feed with this URL already exists")
	}
	f.ID = uuid.NewString()
	f.CreatedAt = s.now()
	f.UpdatedAt = f.CreatedAt
	s.feeds[f.ID] = *f
	return nil
}

func (s *MemoryStore) UpdateFeed(_ context.Context, f *RssFeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.feeds[f.ID]
	if !ok {
		return apperr.NotFound("Feed not found")
	}
	if other, taken := s.feedByURLLocked(f.URL); taken && other.ID != f.ID {
		return apperr.Conflict("A feed with this URL already exists")
	}
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = s.now()
	s.feeds[f.ID] = *f
	return nil
}

func (s *MemoryStore) UpsertFeedByURL(_ context.Context, f *RssFeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.feedByURLLocked(f.URL); ok {
		f.ID = existing.ID
		f.CreatedAt = existing.CreatedAt
	} else {
		f.ID = uuid.NewString()
		f.CreatedAt = s.now()
	}
	f.UpdatedAt = s.now()
	s.feeds[f.ID] = *f
	return nil
}

func (s *MemoryStore) DeleteFeed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feeds[id]; !ok {
		return false, nil
	}
	delete(s.feeds, id)
	return true, nil
}

func (s *MemoryStore) feedByURLLocked(url string) (RssFeed, bool) {
	return lo.Find(lo.Values(s.feeds), func(f RssFeed) bool { return f.URL == url })
}

// Items

func (s *MemoryStore) InsertItems(_ context.Context, items []AiItem) ([]AiItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, ok := s.campaigns[item.CampaignID]; !ok {
			return nil, apperr.NotFound("Campaign not found")
		}
	}

	saved := make([]AiItem, 0, len(items))
	for _, item := range items {
		item.ID = uuid.NewString()
		item.Published = false
		item.VariantCount = 0
		item.FavoriteCount = 0
		item.Tags = nonNil(item.Tags)
		item.Keywords = nonNil(item.Keywords)
		item.CreatedAt = s.tick()
		item.UpdatedAt = item.CreatedAt
		s.items[item.ID] = item
		saved = append(saved, item)
	}
	return saved, nil
}

func (s *MemoryStore) ExistingLinks(_ context.Context, campaignID string, links []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := []string{}
	for _, item := range s.items {
		if item.CampaignID == campaignID && lo.Contains(links, item.SourceLink) {
			existing = append(existing, item.SourceLink)
		}
	}
	return lo.Uniq(existing), nil
}

func (s *MemoryStore) GetItem(_ context.Context, id string) (*AiItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *MemoryStore) QueryItems(_ context.Context, q ItemQuery) ([]AiItem, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := lo.Filter(lo.Values(s.items), func(item AiItem, _ int) bool {
		switch {
		case item.CampaignID != q.CampaignID:
			return false
		case q.Status == StatusPublished && !item.Published:
			return false
		case q.Status == StatusDraft && item.Published:
			return false
		case q.MinScore != nil && item.RelevanceScore < *q.MinScore:
			return false
		case q.MaxScore != nil && item.RelevanceScore > *q.MaxScore:
			return false
		case q.From != nil && item.CreatedAt.Before(*q.From):
			return false
		case q.To != nil && item.CreatedAt.After(*q.To):
			return false
		}
		return true
	})

	slices.SortFunc(items, func(a, b AiItem) int {
		switch q.Sort {
		case SortOldest:
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
		case SortScore:
			return cmp.Or(cmp.Compare(b.RelevanceScore, a.RelevanceScore), b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
		default:
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
		}
	})

	total := len(items)
	if q.Limit > 0 {
		start := min(q.Offset, total)
		items = items[start:min(start+q.Limit, total)]
	}
	return items, total, nil
}

func (s *MemoryStore) SetPublished(_ context.Context, id string, published bool) (*AiItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	item.Published = published
	item.UpdatedAt = s.now()
	s.items[id] = item
	return &item, nil
}

func (s *MemoryStore) UpdateImage(_ context.Context, id, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[id]; ok {
		item.ImageURL = imageURL
		item.UpdatedAt = s.now()
		s.items[id] = item
	}
	return nil
}

func (s *MemoryStore) DeleteItem(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	s.deleteItemLocked(id)
	return true, nil
}

func (s *MemoryStore) deleteItemLocked(id string) {
	delete(s.items, id)
	for variantID, v := range s.variants {
		if v.ItemID == id {
			delete(s.variants, variantID)
		}
	}
	for pageID, p := range s.landingPages {
		if p.ItemID == id {
			delete(s.landingPages, pageID)
		}
	}
}

// Variants

func (s *MemoryStore) ListVariants(_ context.Context, itemID string) ([]AdVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.variantsForLocked(itemID), nil
}

func (s *MemoryStore) variantsForLocked(itemID string) []AdVariant {
	variants := lo.Filter(lo.Values(s.variants), func(v AdVariant, _ int) bool { return v.ItemID == itemID })
	slices.SortFunc(variants, func(a, b AdVariant) int { return cmp.Compare(a.DisplayOrder, b.DisplayOrder) })
	return variants
}

func (s *MemoryStore) GetVariant(_ context.Context, id string) (*AdVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *MemoryStore) AddVariants(_ context.Context, itemID string, variants []AdVariant) ([]AdVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, apperr.NotFound("Content item not found")
	}

	next := 1
	if existing := s.variantsForLocked(itemID); len(existing) > 0 {
		next = existing[len(existing)-1].DisplayOrder + 1
	}

	saved := make([]AdVariant, 0, len(variants))
	for i, v := range variants {
		v.ID = uuid.NewString()
		v.ItemID = itemID
		v.DisplayOrder = next + i
		v.CreatedAt = s.now()
		v.UpdatedAt = v.CreatedAt
		s.variants[v.ID] = v
		saved = append(saved, v)
	}

	item.VariantCount += len(variants)
	s.items[itemID] = item

	return saved, nil
}

func (s *MemoryStore) UpdateVariant(_ context.Context, v *AdVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.variants[v.ID]
	if !ok {
		return apperr.NotFound("Variant not found")
	}

	if existing.Favorite != v.Favorite {
		item := s.items[existing.ItemID]
		if v.Favorite {
			item.FavoriteCount++
		} else {
			item.FavoriteCount = max(item.FavoriteCount-1, 0)
		}
		s.items[existing.ItemID] = item
	}

	v.ItemID = existing.ItemID
	v.DisplayOrder = existing.DisplayOrder
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = s.now()
	s.variants[v.ID] = *v
	return nil
}

func (s *MemoryStore) DeleteVariant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[id]
	if !ok {
		return apperr.NotFound("Variant not found")
	}

	item := s.items[v.ItemID]
	if item.VariantCount <= 1 {
		return apperr.Validation("Cannot delete the last remaining variant")
	}

	item.VariantCount--
	if v.Favorite {
		item.FavoriteCount = max(item.FavoriteCount-1, 0)
	}
	s.items[v.ItemID] = item
	delete(s.variants, id)
	return nil
}

// Landing pages

func (s *MemoryStore) GetLandingPageByItem(_ context.Context, itemID string) (*LandingPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := lo.Find(lo.Values(s.landingPages), func(p LandingPage) bool { return p.ItemID == itemID })
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) GetLandingPageBySlug(_ context.Context, slug string) (*LandingPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := lo.Find(lo.Values(s.landingPages), func(p LandingPage) bool { return p.Slug == slug })
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) CreateLandingPage(_ context.Context, p *LandingPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.landingPages {
		if existing.ItemID == p.ItemID {
			return apperr.Conflict("A landing page already exists for this content item")
		}
		if existing.Slug == p.Slug {
			return apperr.Conflict("Landing page slug is already taken")
		}
	}
	if _, ok := s.items[p.ItemID]; !ok {
		return apperr.NotFound("Content item not found")
	}

	p.ID = uuid.NewString()
	p.ViewCount = 0
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.landingPages[p.ID] = *p
	return nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.landingPages[id]
	if !ok {
		return 0, apperr.NotFound("Landing page not found")
	}
	p.ViewCount++
	s.landingPages[id] = p
	return p.ViewCount, nil
}

func (s *MemoryStore) DeleteLandingPage(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.landingPages[id]; !ok {
		return false, nil
	}
	delete(s.landingPages, id)
	return true, nil
}

// tick returns a strictly increasing timestamp so creation order survives
// sorting even when the clock does not advance between calls.
func (s *MemoryStore) tick() time.Time {
	now := s.now()
	if !now.After(s.lastTick) {
		now = s.lastTick.Add(time.Microsecond)
	}
	s.lastTick = now
	return now
}
