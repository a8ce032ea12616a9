package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/mmcdole/gofeed"
)

// WordPress guids look like https://example.com/?p=123.
var postIDPattern = regexp.MustCompile(`[?&]p=(\d+)`)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a WordPress feed into posts. Items without a recognizable
// post ID are skipped.
func (p *Parser) Run(data []byte) ([]post.Post, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]post.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := p.extractPostID(item)
		if id == 0 {
			slog.Debug("Skipping feed item without post ID", "guid", item.GUID, "link", item.Link)
			continue
		}
		posts = append(posts, p.normalizeItem(id, item))
	}

	return posts, nil
}

func (p *Parser) normalizeItem(id int64, item *gofeed.Item) post.Post {
	normalized := post.Post{
		ID:      id,
		Title:   item.Title,
		Excerpt: item.Description,
		Content: item.Content,
		Link:    p.normalizeURL(item.Link),
		Date:    item.Published,
	}

	if item.PublishedParsed != nil {
		normalized.Date = item.PublishedParsed.In(time.Local).Format(post.RemoteLayout)
	}

	if imageURL := p.extractImage(item); imageURL != "" {
		normalized.Image = &post.Image{URL: imageURL}
	}

	return normalized
}

var trackingParams = []string{"fbclid", "gclid", "mc_cid", "mc_eid"}

// normalizeURL removes utm_* and other click tracking parameters from a link.
func (p *Parser) normalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}

	query := u.Query()
	for key := range query {
		if strings.HasPrefix(key, "utm_") {
			query.Del(key)
		}
	}
	for _, key := range trackingParams {
		query.Del(key)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

func (p *Parser) extractPostID(item *gofeed.Item) int64 {
	for _, candidate := range []string{item.GUID, item.Link} {
		match := postIDPattern.FindStringSubmatch(candidate)
		if match == nil {
			continue
		}
		if id, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// extractImage prefers an image enclosure, then the feed item image, then the
// first <img> in the item body.
func (p *Parser) extractImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, html := range []string{item.Content, item.Description} {
		if !strings.Contains(html, "<img") {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			continue
		}
		if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
			return src
		}
	}

	return ""
}
