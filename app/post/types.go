package post

// Post is a news article as the rest of the service sees it.
// ID is the dedupe key everywhere; the remaining fields are display data.
type Post struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content,omitempty"` // dropped by Simplify
	Date    string `json:"date"`              // site-local ISO-8601, no zone
	Link    string `json:"link,omitempty"`
	Image   *Image `json:"image,omitempty"`
}

// Image is the representative image of a post with optional named size variants.
type Image struct {
	URL   string            `json:"url"`
	Sizes map[string]string `json:"sizes,omitempty"`
}
