package wp

import (
	"context"
	"fmt"

	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

// Catalog resolves taxonomy names to remote category IDs through the static
// name to slug table and the remote slug to ID list. It is built once and
// never refreshed.
type Catalog struct {
	taxonomy *taxonomy.Taxonomy
	ids      map[string]int64
}

type CatalogEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	ID   int64  `json:"id,omitempty"`
}

func LoadCatalog(ctx context.Context, source Source, tax *taxonomy.Taxonomy) (*Catalog, error) {
	categories, err := source.FetchCategoryList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	catalog := EmptyCatalog(tax)
	for _, category := range categories {
		if category.Slug != "" {
			catalog.ids[category.Slug] = category.ID
		}
	}
	return catalog, nil
}

// EmptyCatalog returns a catalog that resolves nothing. Used when the remote
// list cannot be loaded.
func EmptyCatalog(tax *taxonomy.Taxonomy) *Catalog {
	return &Catalog{
		taxonomy: tax,
		ids:      make(map[string]int64),
	}
}

func (c *Catalog) ResolveCategoryID(name string) (int64, bool) {
	slug, ok := c.taxonomy.Slug(name)
	if !ok {
		return 0, false
	}
	id, ok := c.ids[slug]
	return id, ok
}

// Degraded reports whether the catalog holds no remote IDs, leaving search
// as the only way to resolve a category.
func (c *Catalog) Degraded() bool {
	return len(c.ids) == 0
}

func (c *Catalog) Len() int {
	return len(c.ids)
}

// Entries lists the flattened taxonomy with slugs and resolved IDs.
func (c *Catalog) Entries() []CatalogEntry {
	names := c.taxonomy.Flatten()
	entries := make([]CatalogEntry, 0, len(names))
	for _, name := range names {
		entry := CatalogEntry{Name: name}
		entry.Slug, _ = c.taxonomy.Slug(name)
		entry.ID, _ = c.ResolveCategoryID(name)
		entries = append(entries, entry)
	}
	return entries
}
