package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"digital-menu/db"
	"digital-menu/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	catalogCacheKey   = "catalog:public"
	defaultCatalogTTL = 5 * time.Minute
)

type VegFilter string

const (
	VegFilterAll    VegFilter = "all"
	VegFilterVeg    VegFilter = "veg"
	VegFilterNonVeg VegFilter = "nonveg"
)

type SortMode string

const (
	SortDefault     SortMode = "default"
	SortVegFirst    SortMode = "veg-first"
	SortNonVegFirst SortMode = "nonveg-first"
)

func ParseVegFilter(s string) (VegFilter, error) {
	switch VegFilter(s) {
	case "", VegFilterAll:
		return VegFilterAll, nil
	case VegFilterVeg, VegFilterNonVeg:
		return VegFilter(s), nil
	}
	return "", invalidf("veg filter %q", s)
}

func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortDefault:
		return SortDefault, nil
	case SortVegFirst, SortNonVegFirst:
		return SortMode(s), nil
	}
	return "", invalidf("sort mode %q", s)
}

// FilterAndSort filters by the veg flag, then stably partitions by veg group.
// Items inside a group keep catalog order. The input slice is not modified.
func FilterAndSort(items []models.MenuItem, filter VegFilter, mode SortMode) []models.MenuItem {
	out := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		switch filter {
		case VegFilterVeg:
			if !it.Veg {
				continue
			}
		case VegFilterNonVeg:
			if it.Veg {
				continue
			}
		}
		out = append(out, it)
	}

	if mode != SortVegFirst && mode != SortNonVegFirst {
		return out
	}
	firstVeg := mode == SortVegFirst
	sorted := make([]models.MenuItem, 0, len(out))
	for _, it := range out {
		if it.Veg == firstVeg {
			sorted = append(sorted, it)
		}
	}
	for _, it := range out {
		if it.Veg != firstVeg {
			sorted = append(sorted, it)
		}
	}
	return sorted
}

func FilterByCategory(items []models.MenuItem, categoryID string) []models.MenuItem {
	if categoryID == "" {
		return items
	}
	out := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if it.CategoryID != nil && *it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	return out
}

type Catalog struct {
	Categories []models.Category `json:"categories"`
	Items      []models.MenuItem `json:"items"`
}

// CatalogView is what the customer menu renders for one tab and filter choice.
type CatalogView struct {
	Categories       []models.Category `json:"categories"`
	ActiveCategoryID string            `json:"active_category_id"`
	Items            []models.MenuItem `json:"items"`
}

// CategoryAll disables the category tab filter.
const CategoryAll = "all"

// View selects the active tab (first category when none is given) and applies
// the veg filter and sort.
func (c *Catalog) View(categoryID string, filter VegFilter, mode SortMode) CatalogView {
	active := categoryID
	if active == "" && len(c.Categories) > 0 {
		active = c.Categories[0].ID
	}
	items := c.Items
	if active != CategoryAll {
		items = FilterByCategory(items, active)
	} else {
		active = ""
	}
	return CatalogView{
		Categories:       c.Categories,
		ActiveCategoryID: active,
		Items:            FilterAndSort(items, filter, mode),
	}
}

// CatalogService reads the public catalog through an optional redis cache.
// Admin writes call Invalidate; the next read goes back to the database.
type CatalogService struct {
	Cache  *redis.Client
	TTL    time.Duration
	Log    *zap.Logger
	Loader func(ctx context.Context) (*Catalog, error)
}

func NewCatalogService(cache *redis.Client, ttl time.Duration, log *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogService{Cache: cache, TTL: ttl, Log: log, Loader: LoadPublicCatalog}
}

// Load never fails: read errors are logged and an empty catalog is returned.
func (s *CatalogService) Load(ctx context.Context) *Catalog {
	if cached := s.fromCache(ctx); cached != nil {
		return cached
	}

	cat, err := s.Loader(ctx)
	if err != nil {
		var loadErr *CatalogLoadError
		if errors.As(err, &loadErr) {
			s.Log.Error("catalog load failed", zap.String("table", loadErr.Table), zap.Error(loadErr.Err))
		} else {
			s.Log.Error("catalog load failed", zap.Error(err))
		}
		return &Catalog{Categories: []models.Category{}, Items: []models.MenuItem{}}
	}

	s.toCache(ctx, cat)
	return cat
}

func (s *CatalogService) AvailableItems(ctx context.Context) []models.MenuItem {
	return s.Load(ctx).Items
}

func (s *CatalogService) FindAvailable(ctx context.Context, itemID string) (models.MenuItem, bool) {
	for _, it := range s.AvailableItems(ctx) {
		if it.ID == itemID {
			return it, true
		}
	}
	return models.MenuItem{}, false
}

func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.Log.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

// OnAuthChange re-reads the catalog after sign-in or sign-out. It never touches carts.
func (s *CatalogService) OnAuthChange(ev AuthEvent) {
	s.Log.Debug("auth state changed, refreshing catalog", zap.String("event", string(ev.Kind)))
	s.Invalidate(context.Background())
}

func (s *CatalogService) fromCache(ctx context.Context) *Catalog {
	if s.Cache == nil {
		return nil
	}
	val, err := s.Cache.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Log.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil
	}
	var cat Catalog
	if err := json.Unmarshal(val, &cat); err != nil {
		return nil
	}
	return &cat
}

func (s *CatalogService) toCache(ctx context.Context, cat *Catalog) {
	if s.Cache == nil {
		return
	}
	data, err := json.Marshal(cat)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, catalogCacheKey, data, s.TTL).Err(); err != nil {
		s.Log.Warn("catalog cache write failed", zap.Error(err))
	}
}

// LoadPublicCatalog reads categories by sort_order and available items by creation time.
func LoadPublicCatalog(ctx context.Context) (*Catalog, error) {
	cats, err := ListCategories(ctx)
	if err != nil {
		return nil, &CatalogLoadError{Table: "categories", Err: err}
	}
	items, err := listMenuItems(ctx, true)
	if err != nil {
		return nil, &CatalogLoadError{Table: "menu_items", Err: err}
	}
	return &Catalog{Categories: cats, Items: items}, nil
}

func ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, name, sort_order, created_at FROM categories
		ORDER BY sort_order ASC, created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
