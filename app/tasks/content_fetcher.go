package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/wp"
)

// ContentFetcher finds the body of a post: the post itself, then the remote
// source, then readability extraction of the article page.
type ContentFetcher struct {
	source           wp.Source
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	userAgent        string
}

func NewContentFetcher(source wp.Source, httpClient *http.Client, contentExtractor *feed.ContentExtractor, userAgent string) *ContentFetcher {
	return &ContentFetcher{
		source:           source,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		userAgent:        userAgent,
	}
}

func (c *ContentFetcher) Fetch(ctx context.Context, p post.Post) (string, error) {
	if p.Content != "" {
		return p.Content, nil
	}

	full, err := c.source.FetchPost(ctx, p.ID)
	if err == nil {
		if full.Content != "" {
			return full.Content, nil
		}
		if p.Link == "" {
			p.Link = full.Link
		}
	} else if !errors.Is(err, wp.ErrNotFound) && !errors.Is(err, wp.ErrUnsupported) {
		return "", fmt.Errorf("failed to fetch post %d: %w", p.ID, err)
	}

	if p.Link == "" {
		return "", fmt.Errorf("post %d has no link", p.ID)
	}

	data, contentType, err := wp.FetchPage(ctx, c.httpClient, c.userAgent, p.Link)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}

	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	content, err := c.contentExtractor.Run(data, p.Link)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	return content, nil
}
