package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/armoryshop/armory-backend/internal/catalog"
	"github.com/armoryshop/armory-backend/internal/catalog/repository"
	"github.com/armoryshop/armory-backend/pkg/metrics"
)

// Catalog defines the catalog operations used by the handler layer.
type Catalog interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	Weapons(ctx context.Context) ([]catalog.Weapon, error)
	AddCategory(ctx context.Context, c catalog.Category) error
	UpdateCategory(ctx context.Context, id string, upd catalog.CategoryUpdate) error
	DeleteCategory(ctx context.Context, id string) error
	AddWeapon(ctx context.Context, w catalog.Weapon) error
	UpdateWeapon(ctx context.Context, id string, upd catalog.WeaponUpdate) error
	DeleteWeapon(ctx context.Context, id string) error
	Settings(ctx context.Context) (catalog.Settings, error)
	UpdateSettings(ctx context.Context, upd catalog.SettingsUpdate) error
	CategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error)
	WeaponBySlug(ctx context.Context, slug string) (*catalog.Weapon, error)
	WeaponsByCategory(ctx context.Context, categoryID string) ([]catalog.Weapon, error)
}

// CachedStore serves the whole-catalog document out of a process-wide cache
// and funnels every mutation through a fetch-modify-persist cycle against the
// backing DocumentStore.
//
// The cache entry is guarded by mu; writeMu serializes mutating operations so
// two admin requests cannot interleave their read-modify-write cycles within
// this process. Across processes the version token still decides.
type CachedStore struct {
	store repository.DocumentStore
	ttl   time.Duration
	now   func() time.Time

	writeMu sync.Mutex

	mu        sync.RWMutex
	cached    *catalog.StoreData
	version   string
	fetchedAt time.Time
}

// NewCachedStore wraps a document store with a freshness-window cache.
// ttl <= 0 falls back to the reference 10 seconds.
func NewCachedStore(store repository.DocumentStore, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &CachedStore{store: store, ttl: ttl, now: time.Now}
}

// StoreData returns the current document, from cache when it is younger than
// the freshness window, otherwise from the backing store. Callers must treat
// the result as read-only; mutations go through the entity operations.
func (s *CachedStore) StoreData(ctx context.Context) (*catalog.StoreData, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		doc := s.cached
		s.mu.RUnlock()
		metrics.CacheHits.Inc()
		return doc, nil
	}
	s.mu.RUnlock()

	metrics.CacheMisses.Inc()
	return s.refresh(ctx)
}

func (s *CachedStore) refresh(ctx context.Context) (*catalog.StoreData, error) {
	raw, version, err := s.store.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := catalog.Decode(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cached, s.version, s.fetchedAt = doc, version, s.now()
	s.mu.Unlock()
	return doc, nil
}

// persist writes the document conditionally on the cached version token. On a
// conflict it re-reads the current token and retries once; the document still
// wins whole (last write at document granularity). A successful write replaces
// the cache immediately, so reads within this process observe it regardless of
// the freshness window. On failure the prior cache stays authoritative.
func (s *CachedStore) persist(ctx context.Context, doc *catalog.StoreData) error {
	raw, err := catalog.Encode(doc)
	if err != nil {
		return err
	}

	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()

	newVersion, err := s.store.Write(ctx, raw, version)
	if errors.Is(err, repository.ErrVersionConflict) {
		_, fresh, ferr := s.store.Fetch(ctx)
		if ferr != nil {
			return ferr
		}
		newVersion, err = s.store.Write(ctx, raw, fresh)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cached, s.version, s.fetchedAt = doc, newVersion, s.now()
	s.mu.Unlock()
	return nil
}

func (s *CachedStore) Categories(ctx context.Context) ([]catalog.Category, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (s *CachedStore) Weapons(ctx context.Context) ([]catalog.Weapon, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Weapons, nil
}

func (s *CachedStore) AddCategory(ctx context.Context, c catalog.Category) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	next := doc.Clone()
	next.Categories = append(next.Categories, c)
	return s.persist(ctx, next)
}

// UpdateCategory merges the set fields over the stored record. An unknown id
// is a no-op: nothing is written and no error is returned.
func (s *CachedStore) UpdateCategory(ctx context.Context, id string, upd catalog.CategoryUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range doc.Categories {
		if doc.Categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := doc.Clone()
	c := &next.Categories[idx]
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Slug != nil {
		c.Slug = *upd.Slug
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Image != nil {
		c.Image = *upd.Image
	}
	return s.persist(ctx, next)
}

// DeleteCategory removes every record with the given id and persists even
// when nothing matched. Weapons referencing the category are left in place.
func (s *CachedStore) DeleteCategory(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	next := doc.Clone()
	kept := next.Categories[:0]
	for _, c := range next.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	next.Categories = kept
	return s.persist(ctx, next)
}

func (s *CachedStore) AddWeapon(ctx context.Context, w catalog.Weapon) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	next := doc.Clone()
	next.Weapons = append(next.Weapons, w)
	return s.persist(ctx, next)
}

func (s *CachedStore) UpdateWeapon(ctx context.Context, id string, upd catalog.WeaponUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range doc.Weapons {
		if doc.Weapons[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := doc.Clone()
	w := &next.Weapons[idx]
	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.Slug != nil {
		w.Slug = *upd.Slug
	}
	if upd.CategoryID != nil {
		w.CategoryID = *upd.CategoryID
	}
	if upd.Price != nil {
		w.Price = *upd.Price
	}
	if upd.Images != nil {
		w.Images = append([]string(nil), upd.Images...)
	}
	if upd.VideoURL != nil {
		w.VideoURL = *upd.VideoURL
	}
	if upd.ShortDescription != nil {
		w.ShortDescription = *upd.ShortDescription
	}
	if upd.FullDescription != nil {
		w.FullDescription = *upd.FullDescription
	}
	if upd.Specifications != nil {
		w.Specifications = append(catalog.Specs(nil), upd.Specifications...)
	}
	return s.persist(ctx, next)
}

func (s *CachedStore) DeleteWeapon(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	next := doc.Clone()
	kept := next.Weapons[:0]
	for _, w := range next.Weapons {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	next.Weapons = kept
	return s.persist(ctx, next)
}

// Settings returns the singleton settings record, substituting an empty
// default when the document has none.
func (s *CachedStore) Settings(ctx context.Context) (catalog.Settings, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return catalog.Settings{}, err
	}
	if doc.Settings == nil {
		return catalog.Settings{}, nil
	}
	return *doc.Settings, nil
}

func (s *CachedStore) UpdateSettings(ctx context.Context, upd catalog.SettingsUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.StoreData(ctx)
	if err != nil {
		return err
	}
	next := doc.Clone()
	if next.Settings == nil {
		next.Settings = &catalog.Settings{}
	}
	if upd.OrderButtonURL != nil {
		next.Settings.OrderButtonURL = *upd.OrderButtonURL
	}
	return s.persist(ctx, next)
}

func (s *CachedStore) CategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Categories {
		if doc.Categories[i].Slug == slug {
			c := doc.Categories[i]
			return &c, nil
		}
	}
	return nil, nil
}

// WeaponBySlug resolves a weapon by slug. The input may arrive either
// percent-encoded or already decoded, so both forms are matched; the first
// match wins.
func (s *CachedStore) WeaponBySlug(ctx context.Context, slug string) (*catalog.Weapon, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return nil, err
	}
	decoded, derr := url.PathUnescape(slug)
	if derr != nil {
		decoded = slug
	}
	for i := range doc.Weapons {
		if doc.Weapons[i].Slug == decoded || doc.Weapons[i].Slug == slug {
			w := doc.Weapons[i]
			return &w, nil
		}
	}
	return nil, nil
}

// WeaponsByCategory returns all weapons whose foreign key matches, in
// collection order. Dangling keys are fine: a deleted category keeps its
// orphaned weapons.
func (s *CachedStore) WeaponsByCategory(ctx context.Context, categoryID string) ([]catalog.Weapon, error) {
	doc, err := s.StoreData(ctx)
	if err != nil {
		return nil, err
	}
	out := []catalog.Weapon{}
	for _, w := range doc.Weapons {
		if w.CategoryID == categoryID {
			out = append(out, w)
		}
	}
	return out, nil
}
