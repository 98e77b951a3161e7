package services

import (
	"context"
	"errors"
	"testing"

	"digital-menu/models"

	"go.uber.org/zap"
)

func ids(items []models.MenuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterAndSort(t *testing.T) {
	items := []models.MenuItem{
		priced("A", "A", 10, true),
		priced("B", "B", 10, false),
		priced("C", "C", 10, true),
		priced("D", "D", 10, false),
	}
	tests := []struct {
		filter VegFilter
		mode   SortMode
		want   []string
	}{
		{VegFilterAll, SortDefault, []string{"A", "B", "C", "D"}},
		{VegFilterAll, SortVegFirst, []string{"A", "C", "B", "D"}},
		{VegFilterAll, SortNonVegFirst, []string{"B", "D", "A", "C"}},
		{VegFilterVeg, SortDefault, []string{"A", "C"}},
		{VegFilterNonVeg, SortDefault, []string{"B", "D"}},
		{VegFilterVeg, SortNonVegFirst, []string{"A", "C"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter)+"/"+string(tt.mode), func(t *testing.T) {
			got := ids(FilterAndSort(items, tt.filter, tt.mode))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if got := ids(items); !equalIDs(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("input reordered: %v", got)
	}
}

func TestParseFilterAndSort(t *testing.T) {
	if f, err := ParseVegFilter(""); err != nil || f != VegFilterAll {
		t.Errorf("empty filter = %q, %v", f, err)
	}
	if _, err := ParseVegFilter("vegan"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad filter err = %v", err)
	}
	if m, err := ParseSortMode("veg-first"); err != nil || m != SortVegFirst {
		t.Errorf("veg-first = %q, %v", m, err)
	}
	if _, err := ParseSortMode("price"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad sort err = %v", err)
	}
}

func sampleCatalog() *Catalog {
	c1, c2 := "c1", "c2"
	a := priced("a", "Paneer", 150, true)
	a.CategoryID = &c1
	b := priced("b", "Chicken", 200, false)
	b.CategoryID = &c1
	c := priced("c", "Roti", 20, true)
	c.CategoryID = &c2
	d := priced("d", "Loose", 5, true)
	return &Catalog{
		Categories: []models.Category{{ID: "c1", Name: "Starters"}, {ID: "c2", Name: "Breads"}},
		Items:      []models.MenuItem{a, b, c, d},
	}
}

func TestCatalog_View(t *testing.T) {
	cat := sampleCatalog()

	v := cat.View("", VegFilterAll, SortDefault)
	if v.ActiveCategoryID != "c1" || !equalIDs(ids(v.Items), []string{"a", "b"}) {
		t.Errorf("default view = %s %v", v.ActiveCategoryID, ids(v.Items))
	}

	v = cat.View("c2", VegFilterAll, SortDefault)
	if !equalIDs(ids(v.Items), []string{"c"}) {
		t.Errorf("c2 view = %v", ids(v.Items))
	}

	v = cat.View(CategoryAll, VegFilterVeg, SortDefault)
	if v.ActiveCategoryID != "" || !equalIDs(ids(v.Items), []string{"a", "c", "d"}) {
		t.Errorf("all veg view = %q %v", v.ActiveCategoryID, ids(v.Items))
	}

	empty := &Catalog{}
	if v := empty.View("", VegFilterAll, SortDefault); len(v.Items) != 0 || v.ActiveCategoryID != "" {
		t.Errorf("empty catalog view = %+v", v)
	}
}

func TestCatalogService_LoadFailureYieldsEmptyCatalog(t *testing.T) {
	s := NewCatalogService(nil, 0, zap.NewNop())
	s.Loader = func(context.Context) (*Catalog, error) {
		return nil, &CatalogLoadError{Table: "menu_items", Err: errors.New("connection refused")}
	}
	cat := s.Load(context.Background())
	if cat == nil || len(cat.Items) != 0 || len(cat.Categories) != 0 {
		t.Fatalf("catalog = %+v, want empty", cat)
	}
	if _, ok := s.FindAvailable(context.Background(), "a"); ok {
		t.Error("found item in failed catalog")
	}
}

func TestCatalogService_WithoutCacheReloadsEveryTime(t *testing.T) {
	calls := 0
	s := NewCatalogService(nil, 0, zap.NewNop())
	s.Loader = func(context.Context) (*Catalog, error) {
		calls++
		return sampleCatalog(), nil
	}
	ctx := context.Background()
	if it, ok := s.FindAvailable(ctx, "c"); !ok || it.Name != "Roti" {
		t.Errorf("FindAvailable(c) = %+v, %v", it, ok)
	}
	s.OnAuthChange(AuthEvent{Kind: AuthSignedIn, Email: "a@b.c"})
	_ = s.AvailableItems(ctx)
	if calls != 2 {
		t.Errorf("loader calls = %d, want 2", calls)
	}
}

func TestCatalogLoadError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := error(&CatalogLoadError{Table: "categories", Err: base})
	if !errors.Is(err, base) {
		t.Error("CatalogLoadError should unwrap to its cause")
	}
	if err.Error() != "load categories: boom" {
		t.Errorf("message = %q", err.Error())
	}
}
