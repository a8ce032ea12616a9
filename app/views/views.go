package views

import (
	"maps"
	"slices"
	"time"

	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

// Union concatenates every category except the aggregate and today
// pseudo-categories, in category name order, deduplicated by ID.
func Union(grouped map[string][]post.Post) []post.Post {
	var all []post.Post
	for _, category := range slices.Sorted(maps.Keys(grouped)) {
		if category == taxonomy.Aggregate || category == taxonomy.Today {
			continue
		}
		all = append(all, grouped[category]...)
	}
	return post.UniqByID(all)
}

// BuildToday returns the posts dated on now's local calendar day, newest
// first. When none match, the whole union is returned instead.
func BuildToday(grouped map[string][]post.Post, now time.Time, limit int) []post.Post {
	return BuildTodayFromList(Union(grouped), now, limit)
}

func BuildTodayFromList(posts []post.Post, now time.Time, limit int) []post.Post {
	unique := post.UniqByID(posts)
	today := now.In(time.Local).Format(time.DateOnly)

	var matching []post.Post
	for _, p := range unique {
		if post.DayKey(p.Date) == today {
			matching = append(matching, p)
		}
	}

	if len(matching) == 0 {
		matching = unique
	}

	post.SortNewestFirst(matching)
	return post.Truncate(matching, limit)
}

// Partition splits the grouped map into the categories named in subtree and
// the rest.
func Partition(grouped map[string][]post.Post, subtree []string) (in, out map[string][]post.Post) {
	in = make(map[string][]post.Post)
	out = make(map[string][]post.Post)

	for category, posts := range grouped {
		if slices.Contains(subtree, category) {
			in[category] = posts
		} else {
			out[category] = posts
		}
	}
	return in, out
}

// PartitionNode partitions by the subtree rooted at node.
func PartitionNode(grouped map[string][]post.Post, tax *taxonomy.Taxonomy, node string) (in, out map[string][]post.Post) {
	return Partition(grouped, tax.Subtree(node))
}

// Search matches the normalized query against post titles across every
// category. Results are deduplicated and sorted newest first.
func Search(grouped map[string][]post.Post, query string, limit int) []post.Post {
	normalized := post.NormalizeText(query)
	if normalized == "" {
		return nil
	}

	var all []post.Post
	for _, category := range slices.Sorted(maps.Keys(grouped)) {
		all = append(all, grouped[category]...)
	}

	var matches []post.Post
	for _, p := range post.UniqByID(all) {
		if post.MatchesTitle(p, normalized) {
			matches = append(matches, p)
		}
	}

	post.SortNewestFirst(matches)
	return post.Truncate(matches, limit)
}
