package post

import (
	"testing"
	"time"
)

func TestSimplifyDropsContent(t *testing.T) {
	original := Post{
		ID:      42,
		Title:   "Title",
		Excerpt: "Excerpt",
		Content: "<p>Long body</p>",
		Date:    "2024-05-01T10:00:00",
		Link:    "https://example.com/?p=42",
		Image: &Image{
			URL:   "https://example.com/img.jpg",
			Sizes: map[string]string{"thumbnail": "https://example.com/img-150.jpg"},
		},
	}

	simplified := Simplify(original)

	if simplified.Content != "" {
		t.Errorf("Expected content to be dropped, got %q", simplified.Content)
	}
	if simplified.ID != 42 || simplified.Title != "Title" || simplified.Date != original.Date {
		t.Errorf("Expected identity fields to be kept, got %+v", simplified)
	}
	if simplified.Image == nil || simplified.Image.Sizes["thumbnail"] == "" {
		t.Fatalf("Expected image sizes to be kept, got %+v", simplified.Image)
	}

	simplified.Image.Sizes["thumbnail"] = "changed"
	if original.Image.Sizes["thumbnail"] == "changed" {
		t.Error("Simplify should not share the sizes map with the original")
	}
}

func TestSimplifyDropsEmptyImage(t *testing.T) {
	simplified := Simplify(Post{ID: 1, Image: &Image{}})
	if simplified.Image != nil {
		t.Errorf("Expected empty image to be dropped, got %+v", simplified.Image)
	}
}

func TestUniqByID(t *testing.T) {
	posts := []Post{
		{ID: 1, Title: "first"},
		{ID: 2, Title: "second"},
		{ID: 1, Title: "first again"},
		{ID: 3, Title: "third"},
		{ID: 2, Title: "second again"},
	}

	unique := UniqByID(posts)

	if len(unique) != 3 {
		t.Fatalf("Expected 3 posts, got %d", len(unique))
	}
	expected := []string{"first", "second", "third"}
	for i, title := range expected {
		if unique[i].Title != title {
			t.Errorf("Position %d: expected %q, got %q", i, title, unique[i].Title)
		}
	}
}

func TestUniqByIDEmpty(t *testing.T) {
	if got := UniqByID(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %d posts", len(got))
	}
}

func TestTruncate(t *testing.T) {
	posts := []Post{{ID: 1}, {ID: 2}, {ID: 3}}

	tests := []struct {
		limit    int
		expected int
	}{
		{0, 3},
		{-1, 3},
		{2, 2},
		{3, 3},
		{10, 3},
	}

	for _, tt := range tests {
		if got := len(Truncate(posts, tt.limit)); got != tt.expected {
			t.Errorf("Truncate(%d): expected %d posts, got %d", tt.limit, tt.expected, got)
		}
	}
}

func TestSortNewestFirst(t *testing.T) {
	posts := []Post{
		{ID: 1, Date: "2024-05-01T08:00:00"},
		{ID: 2, Date: "not a date"},
		{ID: 3, Date: "2024-05-02T08:00:00"},
		{ID: 4, Date: "2024-05-01T09:30:00"},
	}

	SortNewestFirst(posts)

	expected := []int64{3, 4, 1, 2}
	for i, id := range expected {
		if posts[i].ID != id {
			t.Errorf("Position %d: expected ID %d, got %d", i, id, posts[i].ID)
		}
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		value string
		ok    bool
	}{
		{"2024-05-01T10:20:30", true},
		{"2024-05-01T10:20:30.123", true},
		{"2024-05-01 10:20:30", true},
		{"2024-05-01T10:20:30+02:00", true},
		{"2024-05-01", true},
		{"", false},
		{"yesterday", false},
	}

	for _, tt := range tests {
		_, ok := ParseDate(tt.value, loc)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q): expected ok=%v, got %v", tt.value, tt.ok, ok)
		}
	}

	parsed, _ := ParseDate("2024-05-01T10:20:30", loc)
	if parsed.Location() != loc {
		t.Errorf("Expected naive date to be read in the given location, got %v", parsed.Location())
	}
}

func TestDayKey(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"2024-05-01T23:59:59", "2024-05-01"},
		{"2024-05-01T00:00:00", "2024-05-01"},
		{"2024-05-01", "2024-05-01"},
		{"garbage", ""},
	}

	for _, tt := range tests {
		if got := DayKey(tt.value); got != tt.expected {
			t.Errorf("DayKey(%q): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}
