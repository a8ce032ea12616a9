package views

import (
	"slices"
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

func ids(posts []post.Post) []int64 {
	result := make([]int64, 0, len(posts))
	for _, p := range posts {
		result = append(result, p.ID)
	}
	return result
}

func TestBuildTodayFiltersToLocalDay(t *testing.T) {
	now := time.Date(2024, 5, 2, 15, 0, 0, 0, time.Local)

	grouped := map[string][]post.Post{
		"Sport": {
			{ID: 1, Date: "2024-05-02T08:00:00"},
			{ID: 2, Date: "2024-05-01T23:00:00"},
		},
		"Svet": {
			{ID: 3, Date: "2024-05-02T12:00:00"},
			{ID: 1, Date: "2024-05-02T08:00:00"},
		},
		taxonomy.Aggregate: {{ID: 4, Date: "2024-05-02T13:00:00"}},
		taxonomy.Today:     {{ID: 5, Date: "2024-05-02T14:00:00"}},
	}

	got := ids(BuildToday(grouped, now, 10))
	expected := []int64{3, 1}
	if !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestBuildTodayFallsBackToUnion(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.Local)

	grouped := map[string][]post.Post{
		"Sport":   {{ID: 1, Date: "2024-05-02T08:00:00"}, {ID: 2, Date: "2024-05-03T08:00:00"}},
		"Kultura": {{ID: 2, Date: "2024-05-03T08:00:00"}, {ID: 3, Date: "2024-05-01T08:00:00"}},
	}

	got := ids(BuildToday(grouped, now, 0))
	expected := []int64{2, 1, 3}
	if !slices.Equal(got, expected) {
		t.Errorf("Expected full deduped union %v, got %v", expected, got)
	}

	if capped := BuildToday(grouped, now, 2); len(capped) != 2 {
		t.Errorf("Expected fallback to respect the limit, got %d", len(capped))
	}
}

func TestBuildTodayEmpty(t *testing.T) {
	if got := BuildToday(nil, time.Now(), 10); len(got) != 0 {
		t.Errorf("Expected empty result, got %d posts", len(got))
	}
}

func TestBuildTodayFromList(t *testing.T) {
	now := time.Date(2024, 5, 2, 15, 0, 0, 0, time.Local)
	posts := []post.Post{
		{ID: 1, Date: "2024-05-02T08:00:00"},
		{ID: 2, Date: "2024-05-02T09:00:00"},
		{ID: 1, Date: "2024-05-02T08:00:00"},
		{ID: 3, Date: "2024-05-01T09:00:00"},
	}

	got := ids(BuildTodayFromList(posts, now, 1))
	if !slices.Equal(got, []int64{2}) {
		t.Errorf("Expected [2], got %v", got)
	}
}

func TestPartition(t *testing.T) {
	tax := taxonomy.Default()
	grouped := map[string][]post.Post{
		"Sport":   {{ID: 1}},
		"Lokal":   {{ID: 2}},
		"Beograd": {{ID: 3}},
		"Niš":     {{ID: 4}},
		"Svet":    {{ID: 5}},
	}

	in, out := PartitionNode(grouped, tax, taxonomy.Local)

	for _, name := range []string{"Lokal", "Beograd", "Niš"} {
		if _, ok := in[name]; !ok {
			t.Errorf("Expected %s in the local partition", name)
		}
	}
	for _, name := range []string{"Sport", "Svet"} {
		if _, ok := out[name]; !ok {
			t.Errorf("Expected %s outside the local partition", name)
		}
	}
	if len(in)+len(out) != len(grouped) {
		t.Errorf("Expected every category in exactly one partition")
	}

	grouped["Zemun"] = []post.Post{{ID: 6}}
	in, _ = PartitionNode(grouped, tax, taxonomy.Local)
	if _, ok := in["Zemun"]; !ok {
		t.Error("Expected partition to reflect newly added categories")
	}
}

func TestSearch(t *testing.T) {
	grouped := map[string][]post.Post{
		"Lokal": {
			{ID: 1, Title: "Novi most u <strong>Čačku</strong>", Date: "2024-05-01T08:00:00"},
			{ID: 2, Title: "Vodovod u Nišu", Date: "2024-05-02T08:00:00"},
		},
		"Naslovna": {
			{ID: 1, Title: "Novi most u <strong>Čačku</strong>", Date: "2024-05-01T08:00:00"},
			{ID: 3, Title: "Most na Savi", Date: "2024-05-03T08:00:00"},
		},
	}

	got := ids(Search(grouped, "  MOST ", 10))
	if !slices.Equal(got, []int64{3, 1}) {
		t.Errorf("Expected [3 1], got %v", got)
	}

	if got := Search(grouped, "cacku", 10); len(got) != 1 {
		t.Errorf("Expected diacritic-insensitive match, got %d", len(got))
	}

	if got := Search(grouped, "<br>", 10); got != nil {
		t.Errorf("Expected empty query to return nothing, got %v", got)
	}
}
