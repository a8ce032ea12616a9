package post

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// RemoteLayout is the naive local timestamp format used by WordPress for
// post dates and date range queries.
const RemoteLayout = "2006-01-02T15:04:05"

var dateLayouts = []string{
	RemoteLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// Simplify reduces a post to the fields needed for display and caching.
func Simplify(p Post) Post {
	simplified := Post{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Date:    p.Date,
		Link:    p.Link,
	}

	if p.Image != nil && p.Image.URL != "" {
		simplified.Image = &Image{URL: p.Image.URL}
		if len(p.Image.Sizes) > 0 {
			simplified.Image.Sizes = maps.Clone(p.Image.Sizes)
		}
	}

	return simplified
}

func SimplifyAll(posts []Post) []Post {
	simplified := make([]Post, 0, len(posts))
	for _, p := range posts {
		simplified = append(simplified, Simplify(p))
	}
	return simplified
}

// UniqByID keeps the first occurrence of every ID and preserves order.
func UniqByID(posts []Post) []Post {
	seen := make(map[int64]struct{}, len(posts))
	unique := make([]Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// Truncate returns at most limit posts. A non-positive limit keeps everything.
func Truncate(posts []Post, limit int) []Post {
	if limit <= 0 || len(posts) <= limit {
		return posts
	}
	return posts[:limit]
}

// SortNewestFirst sorts posts by date, newest first. Posts with unparseable
// dates go last and keep their relative order.
func SortNewestFirst(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		ta, okA := ParseDate(a.Date, time.Local)
		tb, okB := ParseDate(b.Date, time.Local)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

// ParseDate parses a post date. Values without a zone are read in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey returns the calendar day (YYYY-MM-DD) a post date falls on, as
// written by the remote source. Empty when the date cannot be parsed.
func DayKey(value string) string {
	t, ok := ParseDate(value, time.UTC)
	if !ok {
		return ""
	}
	if strings.ContainsAny(value[min(len(value), 19):], "Z+-") {
		// Zoned timestamps are converted to local wall-clock first.
		t = t.In(time.Local)
	}
	return t.Format("2006-01-02")
}
