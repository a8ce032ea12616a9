package wp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const restPostsJSON = `[
  {
    "id": 11,
    "date": "2024-05-01T10:00:00",
    "link": "https://vesti.example.com/prvi/",
    "title": {"rendered": "Prvi &#8211; naslov"},
    "excerpt": {"rendered": "<p>Opis</p>"},
    "content": {"rendered": "<p>Telo</p>"},
    "_embedded": {
      "wp:featuredmedia": [{
        "source_url": "https://vesti.example.com/prvi.jpg",
        "media_details": {"sizes": {"thumbnail": {"source_url": "https://vesti.example.com/prvi-150.jpg"}}}
      }]
    }
  },
  {
    "id": 12,
    "date": "2024-05-01T09:00:00",
    "link": "https://vesti.example.com/drugi/",
    "title": {"rendered": "Drugi"},
    "excerpt": {"rendered": ""},
    "content": {"rendered": ""}
  }
]`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestRESTClientFetchPostsByCategoryID(t *testing.T) {
	var gotQuery map[string]string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("Expected posts endpoint, got %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected user agent to be sent, got %q", r.Header.Get("User-Agent"))
		}
		gotQuery = map[string]string{
			"categories": r.URL.Query().Get("categories"),
			"page":       r.URL.Query().Get("page"),
			"per_page":   r.URL.Query().Get("per_page"),
			"_embed":     r.URL.Query().Get("_embed"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(restPostsJSON))
	})

	client := NewRESTClient(server.URL, NewHTTPClient(5*time.Second), "test-agent")
	posts, err := client.FetchPostsByCategoryID(context.Background(), 7, 2, 20)
	if err != nil {
		t.Fatal(err)
	}

	if gotQuery["categories"] != "7" || gotQuery["page"] != "2" || gotQuery["per_page"] != "20" || gotQuery["_embed"] != "1" {
		t.Errorf("Unexpected query: %v", gotQuery)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	first := posts[0]
	if first.ID != 11 || first.Date != "2024-05-01T10:00:00" || first.Content != "<p>Telo</p>" {
		t.Errorf("Unexpected first post: %+v", first)
	}
	if first.Image == nil || first.Image.URL != "https://vesti.example.com/prvi.jpg" {
		t.Fatalf("Expected featured image, got %+v", first.Image)
	}
	if first.Image.Sizes["thumbnail"] != "https://vesti.example.com/prvi-150.jpg" {
		t.Errorf("Expected thumbnail size, got %v", first.Image.Sizes)
	}
	if posts[1].Image != nil {
		t.Errorf("Expected no image for second post, got %+v", posts[1].Image)
	}
}

func TestRESTClientFetchPostsByDateRange(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("after") != "2024-05-01T00:00:00" || q.Get("before") != "2024-05-02T00:00:00" {
			t.Errorf("Unexpected range: %s - %s", q.Get("after"), q.Get("before"))
		}
		w.Write([]byte(`[]`))
	})

	client := NewRESTClient(server.URL, NewHTTPClient(5*time.Second), "test-agent")
	posts, err := client.FetchPostsByDateRange(context.Background(), "2024-05-01T00:00:00", "2024-05-02T00:00:00", 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("Expected no posts, got %d", len(posts))
	}
}

func TestRESTClientFetchCategoryList(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/categories" {
			t.Errorf("Expected categories endpoint, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("Expected per_page=100, got %s", r.URL.Query().Get("per_page"))
		}
		w.Write([]byte(`[{"id": 3, "name": "Sport", "slug": "sport", "parent": 0, "count": 10}]`))
	})

	client := NewRESTClient(server.URL, NewHTTPClient(5*time.Second), "test-agent")
	categories, err := client.FetchCategoryList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 1 || categories[0].Slug != "sport" || categories[0].ID != 3 {
		t.Errorf("Unexpected categories: %+v", categories)
	}
}

func TestRESTClientErrors(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts/404":
			http.NotFound(w, r)
		case "/wp-json/wp/v2/posts":
			w.Write([]byte(`{not json`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	client := NewRESTClient(server.URL, NewHTTPClient(5*time.Second), "test-agent")
	ctx := context.Background()

	if _, err := client.FetchPost(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := client.FetchPostsBySearch(ctx, "most"); err == nil {
		t.Error("Expected decode error for malformed body")
	}
	if _, err := client.FetchCategoryList(ctx); err == nil {
		t.Error("Expected error for server failure")
	}
}
