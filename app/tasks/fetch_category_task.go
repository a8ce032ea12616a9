package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
	"github.com/lysyi3m/newsdesk/app/wp"
)

// ErrEmptyResult marks a fetch that produced no posts. Nothing is merged.
var ErrEmptyResult = errors.New("remote returned no posts")

// CategoryFetcher fetches one category from the remote source and merges the
// result into the cache.
type CategoryFetcher struct {
	Source   wp.Source
	Catalog  *wp.Catalog
	Manager  *cache.Manager
	Taxonomy *taxonomy.Taxonomy
	Filterer *feed.Filterer
	PageSize int
}

// Fetch resolves the category to a remote ID and fetches its first page.
// Without an ID, or when the ID fetch fails or comes back empty, it searches
// by name. Filtered, non-empty results are merged.
func (f *CategoryFetcher) Fetch(ctx context.Context, name string) ([]post.Post, error) {
	var posts []post.Post
	var fetchErr error

	if id, ok := f.Catalog.ResolveCategoryID(name); ok {
		posts, fetchErr = f.Source.FetchPostsByCategoryID(ctx, id, 1, f.PageSize)
		if fetchErr != nil {
			slog.Warn("Category fetch failed, searching by name", "category", name, "id", id, "error", fetchErr)
		}
	}

	if len(posts) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		searched, err := f.Source.FetchPostsBySearch(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch category %s: %w", name, errors.Join(fetchErr, err))
		}
		posts = searched
	}

	posts = f.Filterer.Run(posts, f.Taxonomy.FiltersFor(name))
	if len(posts) == 0 {
		return nil, fmt.Errorf("category %s: %w", name, ErrEmptyResult)
	}

	f.Manager.Merge(name, posts)
	return posts, nil
}

type FetchCategoryTask struct {
	Task
	fetcher *CategoryFetcher
	posts   []post.Post
}

// NewFetchCategoryTask returns a task that does not retry: a failed category
// stays absent until it is planned again.
func NewFetchCategoryTask(category string, fetcher *CategoryFetcher) *FetchCategoryTask {
	task := &FetchCategoryTask{
		Task:    NewTask(TaskTypeFetchCategory, category),
		fetcher: fetcher,
	}
	task.MaxRetries = 0
	return task
}

func (t *FetchCategoryTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	posts, err := t.fetcher.Fetch(ctx, t.Subject)
	if err != nil {
		return err
	}
	t.posts = posts

	slog.Info("Task completed",
		"type", t.GetType(),
		"category", t.Subject,
		"duration", t.GetDuration(),
		"posts", len(posts))

	return nil
}

// Posts returns what the last successful run merged.
func (t *FetchCategoryTask) Posts() []post.Post {
	return t.posts
}
