package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops posts rejected by any of the filters and keeps the order of the
// rest.
func (f *Filterer) Run(posts []post.Post, filters []taxonomy.Filter) []post.Post {
	if len(filters) == 0 {
		return posts
	}

	kept := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if isFiltered, reason := f.applyFilters(p, filters); isFiltered {
			slog.Debug("Post filtered", "id", p.ID, "reason", reason)
			continue
		}
		kept = append(kept, p)
	}

	return kept
}

func (f *Filterer) applyFilters(p post.Post, filters []taxonomy.Filter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(p, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	pattern = post.NormalizeText(pattern)
	return pattern != "" && strings.Contains(value, pattern)
}

// getFieldValue returns the field in the same normalized form the patterns
// are compared in.
func (f *Filterer) getFieldValue(p post.Post, field string) string {
	switch field {
	case "title":
		return post.NormalizeText(p.Title)
	case "excerpt":
		return post.NormalizeText(p.Excerpt)
	case "content":
		return post.NormalizeText(p.Content)
	case "link":
		return strings.ToLower(p.Link)
	default:
		return ""
	}
}
