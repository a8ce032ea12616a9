package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/post"
)

const FavoritesKey = "favorites"

var ErrNotFound = errors.New("not found")

// Favorite is a saved post. Content is kept so the article can be read
// offline; ContentError records a failed body extraction.
type Favorite struct {
	post.Post
	SavedAt      time.Time `json:"saved_at"`
	ContentError string    `json:"content_error,omitempty"`
}

type Favorites struct {
	slot *cache.Slot[[]Favorite]
	now  func() time.Time

	mu    sync.RWMutex
	items []Favorite
}

func NewFavorites(store database.Store, maxBytes int) *Favorites {
	return &Favorites{
		slot: cache.NewSlot[[]Favorite](store, FavoritesKey, maxBytes),
		now:  time.Now,
	}
}

func (f *Favorites) Load(ctx context.Context) {
	items, _, ok := f.slot.Load(ctx)
	if !ok {
		return
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()

	slog.Debug("Favorites loaded", "count", len(items))
}

// List returns favorites, most recently saved first.
func (f *Favorites) List() []Favorite {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.items)
}

func (f *Favorites) Get(id int64) (Favorite, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := f.index(id)
	if i < 0 {
		return Favorite{}, false
	}
	return f.items[i], true
}

func (f *Favorites) Contains(id int64) bool {
	_, ok := f.Get(id)
	return ok
}

// Add saves a post at the front. Saving an existing post moves it to the
// front and replaces the stored copy.
func (f *Favorites) Add(ctx context.Context, p post.Post) (Favorite, error) {
	if p.ID <= 0 {
		return Favorite{}, fmt.Errorf("post ID is required")
	}

	saved := post.Simplify(p)
	saved.Content = p.Content
	favorite := Favorite{Post: saved, SavedAt: f.now()}

	f.mu.Lock()
	if i := f.index(p.ID); i >= 0 {
		f.items = slices.Delete(f.items, i, i+1)
	}
	f.items = slices.Insert(f.items, 0, favorite)
	items := slices.Clone(f.items)
	f.mu.Unlock()

	f.persist(ctx, items)
	return favorite, nil
}

func (f *Favorites) Remove(ctx context.Context, id int64) error {
	f.mu.Lock()
	i := f.index(id)
	if i < 0 {
		f.mu.Unlock()
		return fmt.Errorf("favorite %d: %w", id, ErrNotFound)
	}
	f.items = slices.Delete(f.items, i, i+1)
	items := slices.Clone(f.items)
	f.mu.Unlock()

	f.persist(ctx, items)
	return nil
}

// MissingContent lists favorites that have no body and no failed extraction.
func (f *Favorites) MissingContent(limit int) []Favorite {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var missing []Favorite
	for _, item := range f.items {
		if item.Content == "" && item.ContentError == "" {
			missing = append(missing, item)
		}
		if limit > 0 && len(missing) == limit {
			break
		}
	}
	return missing
}

// SetContent stores an extracted body, or the extraction error when
// extractErr is set.
func (f *Favorites) SetContent(ctx context.Context, id int64, content string, extractErr error) error {
	f.mu.Lock()
	i := f.index(id)
	if i < 0 {
		f.mu.Unlock()
		return fmt.Errorf("favorite %d: %w", id, ErrNotFound)
	}
	if extractErr != nil {
		f.items[i].ContentError = extractErr.Error()
	} else {
		f.items[i].Content = content
		f.items[i].ContentError = ""
	}
	items := slices.Clone(f.items)
	f.mu.Unlock()

	f.persist(ctx, items)
	return nil
}

func (f *Favorites) index(id int64) int {
	return slices.IndexFunc(f.items, func(item Favorite) bool { return item.ID == id })
}

func (f *Favorites) persist(ctx context.Context, items []Favorite) {
	if err := f.slot.Save(ctx, items, f.now()); err != nil {
		cache.LogSaveError(FavoritesKey, err)
	}
}
