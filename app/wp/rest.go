package wp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/lysyi3m/newsdesk/app/post"
)

const searchPageSize = 20

var _ Source = (*RESTClient)(nil)

// RESTClient reads posts and categories from the WordPress REST API at
// <site>/wp-json/wp/v2.
type RESTClient struct {
	siteURL    string
	httpClient *http.Client
	userAgent  string
}

func NewRESTClient(siteURL string, httpClient *http.Client, userAgent string) *RESTClient {
	return &RESTClient{
		siteURL:    siteURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type restMedia struct {
	SourceURL    string `json:"source_url"`
	MediaDetails struct {
		Sizes map[string]struct {
			SourceURL string `json:"source_url"`
		} `json:"sizes"`
	} `json:"media_details"`
}

type restPost struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	Link     string   `json:"link"`
	Title    rendered `json:"title"`
	Excerpt  rendered `json:"excerpt"`
	Content  rendered `json:"content"`
	Embedded struct {
		FeaturedMedia []restMedia `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

func (p restPost) toPost() post.Post {
	converted := post.Post{
		ID:      p.ID,
		Title:   p.Title.Rendered,
		Excerpt: p.Excerpt.Rendered,
		Content: p.Content.Rendered,
		Date:    p.Date,
		Link:    p.Link,
	}

	if len(p.Embedded.FeaturedMedia) > 0 && p.Embedded.FeaturedMedia[0].SourceURL != "" {
		media := p.Embedded.FeaturedMedia[0]
		converted.Image = &post.Image{URL: media.SourceURL}
		if len(media.MediaDetails.Sizes) > 0 {
			converted.Image.Sizes = make(map[string]string, len(media.MediaDetails.Sizes))
			for name, size := range media.MediaDetails.Sizes {
				if size.SourceURL != "" {
					converted.Image.Sizes[name] = size.SourceURL
				}
			}
		}
	}

	return converted
}

func (c *RESTClient) FetchPostsByCategoryID(ctx context.Context, id int64, page, pageSize int) ([]post.Post, error) {
	query := c.pageQuery(page, pageSize)
	query.Set("categories", strconv.FormatInt(id, 10))
	return c.fetchPosts(ctx, query)
}

func (c *RESTClient) FetchPostsByDateRange(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error) {
	query := c.pageQuery(page, pageSize)
	query.Set("after", after)
	query.Set("before", before)
	return c.fetchPosts(ctx, query)
}

func (c *RESTClient) FetchPostsBySearch(ctx context.Context, q string) ([]post.Post, error) {
	query := c.pageQuery(1, searchPageSize)
	query.Set("search", q)
	return c.fetchPosts(ctx, query)
}

func (c *RESTClient) FetchCategoryList(ctx context.Context) ([]Category, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(CategoryListPageSize))

	var categories []Category
	if err := c.getJSON(ctx, "/categories", query, &categories); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (c *RESTClient) FetchPost(ctx context.Context, id int64) (*post.Post, error) {
	query := url.Values{}
	query.Set("_embed", "1")

	var raw restPost
	if err := c.getJSON(ctx, "/posts/"+strconv.FormatInt(id, 10), query, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch post %d: %w", id, err)
	}

	p := raw.toPost()
	return &p, nil
}

func (c *RESTClient) fetchPosts(ctx context.Context, query url.Values) ([]post.Post, error) {
	var raw []restPost
	if err := c.getJSON(ctx, "/posts", query, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}

	posts := make([]post.Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toPost())
	}
	return posts, nil
}

func (c *RESTClient) pageQuery(page, pageSize int) url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(page, 1)))
	if pageSize > 0 {
		query.Set("per_page", strconv.Itoa(pageSize))
	}
	query.Set("_embed", "1")
	return query
}

func (c *RESTClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.siteURL + "/wp-json/wp/v2" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	data, _, err := FetchPage(ctx, c.httpClient, c.userAgent, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
