package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/database/dbtest"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/library"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/wp"
	"github.com/lysyi3m/newsdesk/app/wp/wptest"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Novi most otvoren</title></head>
<body>
  <nav><a href="/">Početna</a> <a href="/sport">Sport</a></nav>
  <article>
    <h1>Novi most otvoren</h1>
    <p>Novi most preko reke otvoren je danas za saobraćaj nakon dve godine radova. Gradonačelnik je prisustvovao svečanom otvaranju zajedno sa stotinama građana.</p>
    <p>Most je dugačak četiristo metara i ima po dve saobraćajne trake u oba smera, kao i biciklističku stazu i pešačke prelaze sa obe strane.</p>
    <p>Prema rečima izvođača, most je projektovan tako da izdrži saobraćaj narednih sto godina, a posebna pažnja posvećena je zaštiti obale i okolnog zelenila tokom izgradnje.</p>
    <p>Stanovnici okolnih naselja očekuju da će novi most značajno skratiti vreme putovanja do centra grada i rasteretiti postojeće mostove u jutarnjim i večernjim satima.</p>
    <p>Radovi su finansirani iz gradskog budžeta i sredstava republike, a ukupna vrednost projekta premašila je planirani iznos za nekoliko procenata.</p>
  </article>
  <footer>Sva prava zadržana</footer>
</body>
</html>`

func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(articlePage))
		case "/image.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newContentFetcher(source wp.Source) *ContentFetcher {
	return NewContentFetcher(source, wp.NewHTTPClient(5*time.Second), feed.NewContentExtractor(), "newsdesk-test")
}

func TestContentFetcherPrefersExistingContent(t *testing.T) {
	source := wptest.New()
	content, err := newContentFetcher(source).Fetch(context.Background(), post.Post{ID: 1, Content: "<p>body</p>"})
	if err != nil || content != "<p>body</p>" {
		t.Errorf("Expected existing content, got %q %v", content, err)
	}
}

func TestContentFetcherUsesRemotePost(t *testing.T) {
	source := wptest.New()
	source.Posts[7] = post.Post{ID: 7, Content: "<p>remote body</p>"}

	content, err := newContentFetcher(source).Fetch(context.Background(), post.Post{ID: 7})
	if err != nil || content != "<p>remote body</p>" {
		t.Errorf("Expected remote body, got %q %v", content, err)
	}
}

func TestContentFetcherExtractsArticle(t *testing.T) {
	server := newArticleServer(t)
	source := wptest.New()

	content, err := newContentFetcher(source).Fetch(context.Background(), post.Post{ID: 8, Link: server.URL + "/article"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "četiristo metara") {
		t.Errorf("Expected article body to be extracted, got %q", content)
	}
	if strings.Contains(content, "Sva prava zadržana") {
		t.Error("Expected page chrome to be left out")
	}
}

func TestContentFetcherErrors(t *testing.T) {
	server := newArticleServer(t)
	fetcher := newContentFetcher(wptest.New())

	tests := []struct {
		name    string
		post    post.Post
		errText string
	}{
		{"no link", post.Post{ID: 1}, "has no link"},
		{"not html", post.Post{ID: 2, Link: server.URL + "/image.jpg"}, "not HTML"},
		{"missing page", post.Post{ID: 3, Link: server.URL + "/gone"}, "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Fetch(context.Background(), tt.post)
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestExtractContentTask(t *testing.T) {
	ctx := context.Background()
	server := newArticleServer(t)
	source := wptest.New()
	source.Posts[2] = post.Post{ID: 2, Content: "<p>from api</p>"}

	favorites := library.NewFavorites(dbtest.New(), 0)
	favorites.Add(ctx, post.Post{ID: 1, Link: server.URL + "/article"})
	favorites.Add(ctx, post.Post{ID: 2})
	favorites.Add(ctx, post.Post{ID: 3, Link: server.URL + "/gone"})

	task := NewExtractContentTask(favorites, newContentFetcher(source))
	if err := task.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	if item, _ := favorites.Get(1); !strings.Contains(item.Content, "četiristo metara") {
		t.Errorf("Expected extracted body for favorite 1, got %q", item.Content)
	}
	if item, _ := favorites.Get(2); item.Content != "<p>from api</p>" {
		t.Errorf("Expected API body for favorite 2, got %q", item.Content)
	}
	if item, _ := favorites.Get(3); item.ContentError == "" {
		t.Error("Expected failed extraction to be recorded for favorite 3")
	}
	if missing := favorites.MissingContent(0); len(missing) != 0 {
		t.Errorf("Expected nothing left to extract, got %+v", missing)
	}
}

func TestContentPlanner(t *testing.T) {
	ctx := context.Background()
	favorites := library.NewFavorites(dbtest.New(), 0)
	planner := NewContentPlanner(favorites, newContentFetcher(wptest.New()), time.Minute)
	now := time.Now()

	if got := planner.PlanTasks(now); len(got) != 0 {
		t.Errorf("Expected nothing planned without favorites, got %d", len(got))
	}

	favorites.Add(ctx, post.Post{ID: 1, Link: "https://example.com/a"})

	if got := planner.PlanTasks(now); len(got) != 1 || got[0].GetType() != TaskTypeExtractContent {
		t.Fatalf("Expected one extraction task, got %d", len(got))
	}
	if got := planner.PlanTasks(now.Add(30 * time.Second)); len(got) != 0 {
		t.Errorf("Expected no second task within the interval, got %d", len(got))
	}
	if got := planner.PlanTasks(now.Add(2 * time.Minute)); len(got) != 1 {
		t.Errorf("Expected a task once the interval passed, got %d", len(got))
	}
}
