// Package catalog holds the ordered registry of provider series to fetch.
package catalog

import (
	"fmt"

	"github.com/rewired-gh/macropanel/internal/models"
)

// Series is one catalog row: provider identifier and output column name.
type Series struct {
	ID          string
	DisplayName string
}

// Category groups series under a label. Order is significant.
type Category struct {
	Name   string
	Series []Series
}

// Catalog is an insertion-ordered list of categories.
type Catalog struct {
	Categories []Category
}

// New builds a catalog from categories in the given order.
func New(categories ...Category) Catalog {
	return Catalog{Categories: categories}
}

// Entries flattens the catalog in declared order, category first, then series.
func (c Catalog) Entries() []models.SeriesSpec {
	var out []models.SeriesSpec
	pos := 0
	for _, cat := range c.Categories {
		for _, s := range cat.Series {
			out = append(out, models.SeriesSpec{
				ID:          s.ID,
				DisplayName: s.DisplayName,
				Category:    cat.Name,
				Position:    pos,
			})
			pos++
		}
	}
	return out
}

// Len returns the number of series.
func (c Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Series)
	}
	return n
}

// Lookup finds a series by provider identifier.
func (c Catalog) Lookup(id string) (models.SeriesSpec, bool) {
	for _, e := range c.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return models.SeriesSpec{}, false
}

// Validate rejects empty fields and duplicate identifiers or display names.
func (c Catalog) Validate() error {
	if c.Len() == 0 {
		return fmt.Errorf("catalog must contain at least one series")
	}
	ids := make(map[string]string)
	names := make(map[string]string)
	for _, e := range c.Entries() {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("catalog entry %d: %w", e.Position, err)
		}
		if prev, ok := ids[e.ID]; ok {
			return fmt.Errorf("duplicate series ID %s (categories %q and %q)", e.ID, prev, e.Category)
		}
		ids[e.ID] = e.Category
		if prev, ok := names[e.DisplayName]; ok {
			return fmt.Errorf("duplicate display name %s (series %s and %s)", e.DisplayName, prev, e.ID)
		}
		names[e.DisplayName] = e.ID
	}
	return nil
}

// Subset keeps only the listed identifiers, preserving catalog order.
// Unknown identifiers are reported as an error.
func (c Catalog) Subset(ids []string) (Catalog, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.Lookup(id); !ok {
			return Catalog{}, fmt.Errorf("unknown series ID %s", id)
		}
		want[id] = true
	}
	var out Catalog
	for _, cat := range c.Categories {
		var kept []Series
		for _, s := range cat.Series {
			if want[s.ID] {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out.Categories = append(out.Categories, Category{Name: cat.Name, Series: kept})
		}
	}
	return out, nil
}
