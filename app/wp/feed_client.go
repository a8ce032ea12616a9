package wp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/post"
)

var _ Source = (*FeedClient)(nil)

// FeedClient reads posts from the RSS2 feeds every WordPress site serves.
// Feeds cannot list categories or return single posts.
type FeedClient struct {
	siteURL    string
	httpClient *http.Client
	userAgent  string
	parser     *feed.Parser
}

func NewFeedClient(siteURL string, httpClient *http.Client, userAgent string, parser *feed.Parser) *FeedClient {
	return &FeedClient{
		siteURL:    siteURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		parser:     parser,
	}
}

func (c *FeedClient) FetchPostsByCategoryID(ctx context.Context, id int64, page, pageSize int) ([]post.Post, error) {
	query := url.Values{}
	query.Set("cat", strconv.FormatInt(id, 10))
	if page > 1 {
		query.Set("paged", strconv.Itoa(page))
	}

	posts, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category feed %d: %w", id, err)
	}
	return post.Truncate(posts, pageSize), nil
}

// FetchPostsByDateRange reads the daily archive feed for the start of the
// range and keeps the posts inside [after, before).
func (c *FeedClient) FetchPostsByDateRange(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error) {
	start, ok := post.ParseDate(after, time.Local)
	if !ok {
		return nil, fmt.Errorf("invalid range start: %q", after)
	}
	end, ok := post.ParseDate(before, time.Local)
	if !ok {
		return nil, fmt.Errorf("invalid range end: %q", before)
	}

	query := url.Values{}
	query.Set("m", start.Format("20060102"))
	if page > 1 {
		query.Set("paged", strconv.Itoa(page))
	}

	posts, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archive feed %s: %w", start.Format(time.DateOnly), err)
	}

	inRange := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		published, ok := post.ParseDate(p.Date, time.Local)
		if !ok || published.Before(start) || !published.Before(end) {
			continue
		}
		inRange = append(inRange, p)
	}
	return post.Truncate(inRange, pageSize), nil
}

func (c *FeedClient) FetchPostsBySearch(ctx context.Context, q string) ([]post.Post, error) {
	query := url.Values{}
	query.Set("s", q)

	posts, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search feed: %w", err)
	}
	return post.Truncate(posts, searchPageSize), nil
}

func (c *FeedClient) FetchCategoryList(ctx context.Context) ([]Category, error) {
	return nil, ErrUnsupported
}

func (c *FeedClient) FetchPost(ctx context.Context, id int64) (*post.Post, error) {
	return nil, ErrUnsupported
}

func (c *FeedClient) fetchFeed(ctx context.Context, query url.Values) ([]post.Post, error) {
	query.Set("feed", "rss2")

	data, _, err := FetchPage(ctx, c.httpClient, c.userAgent, c.siteURL+"/?"+query.Encode())
	if err != nil {
		return nil, err
	}

	posts, err := c.parser.Run(data)
	if err != nil {
		return nil, err
	}
	return posts, nil
}
