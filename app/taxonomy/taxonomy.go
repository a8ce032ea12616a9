package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// Aggregate is the home pseudo-category. It is never fetched on its own.
	Aggregate = "Naslovna"
	// Today is the pseudo-category holding the current day's posts.
	Today = "Danas"
	// Local is the root of the nested regional subtree.
	Local = "Lokal"
)

//go:embed default.yml
var defaultTaxonomy []byte

type Node struct {
	Name     string `yaml:"name"`
	Children []Node `yaml:"children,omitempty"`
}

// Filter drops posts whose field matches an exclude rule or none of the
// include rules. Categories limits the filter to the named categories.
type Filter struct {
	Field      string   `yaml:"field"`
	Includes   []string `yaml:"includes"`
	Excludes   []string `yaml:"excludes"`
	Categories []string `yaml:"categories,omitempty"`
}

type Taxonomy struct {
	Categories []Node            `yaml:"categories"`
	Slugs      map[string]string `yaml:"slugs"`
	Filters    []Filter          `yaml:"filters"`
}

var filterFields = map[string]bool{
	"title":   true,
	"excerpt": true,
	"content": true,
	"link":    true,
}

// Default returns the taxonomy compiled into the binary.
func Default() *Taxonomy {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy file. An empty path yields the embedded default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy %s: %w", path, err)
	}
	return t, nil
}

func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if t.Slugs == nil {
		t.Slugs = make(map[string]string)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Taxonomy) validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool)
	var walk func(nodes []Node) error
	walk = func(nodes []Node) error {
		for _, n := range nodes {
			if n.Name == "" {
				return fmt.Errorf("category name is required")
			}
			if seen[n.Name] {
				return fmt.Errorf("duplicate category name: %s", n.Name)
			}
			seen[n.Name] = true
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.Categories); err != nil {
		return err
	}

	for name, slug := range t.Slugs {
		if !seen[name] {
			return fmt.Errorf("slug defined for unknown category: %s", name)
		}
		if slug == "" {
			return fmt.Errorf("empty slug for category: %s", name)
		}
	}

	for i, filter := range t.Filters {
		if !filterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
		for _, name := range filter.Categories {
			if !seen[name] {
				return fmt.Errorf("filter at index %d references unknown category: %s", i, name)
			}
		}
	}
	return nil
}

// FiltersFor returns the filters that apply to a category.
func (t *Taxonomy) FiltersFor(name string) []Filter {
	var filters []Filter
	for _, f := range t.Filters {
		if len(f.Categories) == 0 || slices.Contains(f.Categories, name) {
			filters = append(filters, f)
		}
	}
	return filters
}

// Flatten lists every category depth-first in taxonomy order, leaving out the
// aggregate pseudo-category.
func (t *Taxonomy) Flatten() []string {
	var names []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Name != Aggregate {
				names = append(names, n.Name)
			}
			walk(n.Children)
		}
	}
	walk(t.Categories)
	return names
}

// Subtree returns the node itself followed by all of its descendants. Empty
// when the node is unknown.
func (t *Taxonomy) Subtree(name string) []string {
	node, ok := t.Find(name)
	if !ok {
		return nil
	}

	names := []string{node.Name}
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			names = append(names, n.Name)
			walk(n.Children)
		}
	}
	walk(node.Children)
	return names
}

func (t *Taxonomy) Find(name string) (*Node, bool) {
	var find func(nodes []Node) *Node
	find = func(nodes []Node) *Node {
		for i := range nodes {
			if nodes[i].Name == name {
				return &nodes[i]
			}
			if found := find(nodes[i].Children); found != nil {
				return found
			}
		}
		return nil
	}
	node := find(t.Categories)
	return node, node != nil
}

func (t *Taxonomy) Contains(name string) bool {
	_, ok := t.Find(name)
	return ok
}

func (t *Taxonomy) Slug(name string) (string, bool) {
	slug, ok := t.Slugs[name]
	return slug, ok
}

// Slugged lists, in taxonomy order, the flattened categories that have a slug.
func (t *Taxonomy) Slugged() []string {
	return slices.DeleteFunc(t.Flatten(), func(name string) bool {
		_, ok := t.Slugs[name]
		return !ok
	})
}
