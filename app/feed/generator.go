package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/lysyi3m/newsdesk/app/cfg"
	"github.com/lysyi3m/newsdesk/app/post"
)

// Channel describes the category a generated feed is built for.
type Channel struct {
	Category    string
	Title       string
	Link        string
	Description string
	Language    string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(channel Channel, posts []post.Post) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(channel.Title, channel.Category), 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("Latest posts in %s", channel.Category)
	}
	g.writeElement(&buf, "description", description, 4)

	selfPath := "/categories/" + url.PathEscape(channel.Category) + "/rss"
	var selfLink string
	if cfg.Get().BaseUrl != "" {
		selfLink = cfg.Get().BaseUrl + selfPath
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s%s", cfg.Get().Port, selfPath)
	}
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(posts) > 0 {
		if published, ok := post.ParseDate(posts[0].Date, time.Local); ok {
			lastBuildDate = published
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Newsdesk/%s", cfg.Get().Version), 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	for _, p := range posts {
		g.writeItem(&buf, channel, p)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, channel Channel, p post.Post) {
	buf.WriteString("    <item>\n")

	guid := p.Link
	if guid == "" {
		guid = fmt.Sprintf("%s/?p=%d", channel.Link, p.ID)
	}
	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", p.Link != "" && g.isURL(p.Link)))
	xml.EscapeText(buf, []byte(guid))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", post.PlainText(p.Title), 6)
	g.writeElement(buf, "link", p.Link, 6)
	g.writeElement(buf, "description", cmp.Or(p.Excerpt, "No description available"), 6)

	if p.Content != "" && p.Content != p.Excerpt {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(p.Content)
		buf.WriteString("]]></content:encoded>\n")
	}

	if published, ok := post.ParseDate(p.Date, time.Local); ok {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", channel.Category, 6)

	if p.Image != nil && p.Image.URL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(p.Image.URL),
			html.EscapeString(g.imageType(p.Image.URL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) imageType(imageURL string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if t := mime.TypeByExtension(path.Ext(u.Path)); t != "" {
			return t
		}
	}
	return "image/jpeg"
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
