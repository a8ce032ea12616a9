package feed

import (
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/post"
)

const wordpressFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Vesti</title>
    <link>https://vesti.example.com</link>
    <description>Najnovije vesti</description>
    <language>sr-RS</language>
    <item>
      <title>Novi most u Čačku</title>
      <link>https://vesti.example.com/novi-most/?utm_source=rss&amp;utm_medium=rss</link>
      <description><![CDATA[<p>Kratak opis</p>]]></description>
      <content:encoded><![CDATA[<p>Telo <img src="https://vesti.example.com/most.jpg"/></p>]]></content:encoded>
      <guid isPermaLink="false">https://vesti.example.com/?p=101</guid>
      <pubDate>Wed, 01 May 2024 08:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Sportski pregled</title>
      <link>https://vesti.example.com/?p=102</link>
      <description>Rezultati</description>
      <guid isPermaLink="false">sport-pregled</guid>
      <pubDate>Wed, 01 May 2024 07:00:00 +0000</pubDate>
      <enclosure url="https://vesti.example.com/sport.png" length="1000" type="image/png" />
    </item>
    <item>
      <title>Bez identifikatora</title>
      <link>https://vesti.example.com/bez-id/</link>
      <guid>bez-id</guid>
    </item>
  </channel>
</rss>`

func TestParseWordPressFeed(t *testing.T) {
	parser := NewParser()
	posts, err := parser.Run([]byte(wordpressFeed))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got: %d", len(posts))
	}

	first := posts[0]
	if first.ID != 101 {
		t.Errorf("Expected ID 101 from guid, got: %d", first.ID)
	}
	if first.Link != "https://vesti.example.com/novi-most/" {
		t.Errorf("Expected tracking parameters to be stripped, got: %s", first.Link)
	}
	if first.Excerpt != "<p>Kratak opis</p>" {
		t.Errorf("Expected excerpt from description, got: %s", first.Excerpt)
	}
	if first.Content == "" {
		t.Error("Expected content from content:encoded")
	}
	if first.Image == nil || first.Image.URL != "https://vesti.example.com/most.jpg" {
		t.Errorf("Expected image from body, got: %+v", first.Image)
	}

	expectedDate := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC).In(time.Local).Format(post.RemoteLayout)
	if first.Date != expectedDate {
		t.Errorf("Expected date %s, got: %s", expectedDate, first.Date)
	}

	second := posts[1]
	if second.ID != 102 {
		t.Errorf("Expected ID 102 from link, got: %d", second.ID)
	}
	if second.Image == nil || second.Image.URL != "https://vesti.example.com/sport.png" {
		t.Errorf("Expected image from enclosure, got: %+v", second.Image)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()
	_, err := parser.Run([]byte("invalid xml"))

	if err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestParser_normalizeURL(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "URL with UTM parameters",
			input:    "https://example.com/article?utm_source=twitter&utm_medium=social&utm_campaign=test",
			expected: "https://example.com/article",
		},
		{
			name:     "URL with Facebook tracking",
			input:    "https://example.com/page?fbclid=IwAR123456789&other=keep",
			expected: "https://example.com/page?other=keep",
		},
		{
			name:     "WordPress post link",
			input:    "https://example.com/?p=123",
			expected: "https://example.com/?p=123",
		},
		{
			name:     "URL without query parameters",
			input:    "https://example.com/simple",
			expected: "https://example.com/simple",
		},
		{
			name:     "Empty URL",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.normalizeURL(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
