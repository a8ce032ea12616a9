package library

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lysyi3m/newsdesk/app/database/dbtest"
	"github.com/lysyi3m/newsdesk/app/post"
)

func TestFavoritesAddNewestFirst(t *testing.T) {
	ctx := context.Background()
	favorites := NewFavorites(dbtest.New(), 0)

	for i := int64(1); i <= 3; i++ {
		if _, err := favorites.Add(ctx, post.Post{ID: i, Title: fmt.Sprintf("Post %d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := favorites.Add(ctx, post.Post{ID: 1, Title: "Post 1 updated"}); err != nil {
		t.Fatal(err)
	}

	items := favorites.List()
	if len(items) != 3 {
		t.Fatalf("Expected 3 favorites, got %d", len(items))
	}
	if items[0].ID != 1 || items[0].Title != "Post 1 updated" {
		t.Errorf("Expected re-added post at the front, got %+v", items[0])
	}
	if items[1].ID != 3 || items[2].ID != 2 {
		t.Errorf("Expected order [1 3 2], got [%d %d %d]", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestFavoritesAddRejectsMissingID(t *testing.T) {
	if _, err := NewFavorites(dbtest.New(), 0).Add(context.Background(), post.Post{Title: "x"}); err == nil {
		t.Error("Expected error for post without ID")
	}
}

func TestFavoritesRemove(t *testing.T) {
	ctx := context.Background()
	favorites := NewFavorites(dbtest.New(), 0)
	favorites.Add(ctx, post.Post{ID: 1})

	if err := favorites.Remove(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if favorites.Contains(1) {
		t.Error("Expected favorite to be removed")
	}
	if err := favorites.Remove(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFavoritesPersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := dbtest.New()

	favorites := NewFavorites(store, 0)
	favorites.Add(ctx, post.Post{ID: 5, Title: "Saved", Content: "<p>body</p>"})
	favorites.Add(ctx, post.Post{ID: 6, Title: "Other"})

	restored := NewFavorites(store, 0)
	restored.Load(ctx)

	items := restored.List()
	if len(items) != 2 || items[0].ID != 6 {
		t.Fatalf("Expected 2 restored favorites with 6 first, got %+v", items)
	}
	if saved, _ := restored.Get(5); saved.Content != "<p>body</p>" {
		t.Errorf("Expected content to survive the round trip, got %q", saved.Content)
	}
	if saved, _ := restored.Get(5); saved.SavedAt.IsZero() {
		t.Error("Expected saved time to survive the round trip")
	}
}

func TestFavoritesLoadCorrupt(t *testing.T) {
	store := dbtest.New()
	store.Put(FavoritesKey, []byte("]["))

	favorites := NewFavorites(store, 0)
	favorites.Load(context.Background())

	if len(favorites.List()) != 0 {
		t.Error("Expected corrupt favorites to read as empty")
	}
}

func TestFavoritesContent(t *testing.T) {
	ctx := context.Background()
	favorites := NewFavorites(dbtest.New(), 0)
	favorites.Add(ctx, post.Post{ID: 1})
	favorites.Add(ctx, post.Post{ID: 2, Content: "<p>has body</p>"})
	favorites.Add(ctx, post.Post{ID: 3})

	missing := favorites.MissingContent(0)
	if len(missing) != 2 {
		t.Fatalf("Expected 2 favorites without content, got %d", len(missing))
	}
	if got := favorites.MissingContent(1); len(got) != 1 || got[0].ID != 3 {
		t.Errorf("Expected limit to keep the newest, got %+v", got)
	}

	if err := favorites.SetContent(ctx, 1, "<p>extracted</p>", nil); err != nil {
		t.Fatal(err)
	}
	if err := favorites.SetContent(ctx, 3, "", errors.New("timeout")); err != nil {
		t.Fatal(err)
	}
	if got := favorites.MissingContent(0); len(got) != 0 {
		t.Errorf("Expected nothing left to extract, got %+v", got)
	}
	if item, _ := favorites.Get(3); item.ContentError != "timeout" {
		t.Errorf("Expected extraction error to be recorded, got %q", item.ContentError)
	}
	if err := favorites.SetContent(ctx, 99, "x", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFavoritesPersistFailureKeepsMemory(t *testing.T) {
	store := dbtest.New()
	store.SetError(errors.New("disk full"))

	favorites := NewFavorites(store, 0)
	if _, err := favorites.Add(context.Background(), post.Post{ID: 1}); err != nil {
		t.Fatalf("Expected storage failure to be swallowed, got %v", err)
	}
	if !favorites.Contains(1) {
		t.Error("Expected favorite to be kept in memory")
	}
}
